package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title      string `json:"title" validate:"required,max=5"`
	Quantity   int    `json:"quantity" validate:"gte=1"`
	Membership string `json:"membership" validate:"omitempty,oneof=B S G"`
	Email      string `json:"email" validate:"omitempty,email"`
}

func TestStruct_Valid(t *testing.T) {
	fe := Struct(sample{Title: "ok", Quantity: 1, Membership: "G"})
	assert.Empty(t, fe)
	assert.NoError(t, fe.OrNil())
}

func TestStruct_FieldMessages(t *testing.T) {
	fe := Struct(sample{Title: "", Quantity: 0, Membership: "X", Email: "nope"})

	require.Error(t, fe.OrNil())
	assert.Equal(t, []string{"This field may not be blank."}, fe["title"])
	assert.Equal(t, []string{"Ensure this value is greater than or equal to 1."}, fe["quantity"])
	assert.Equal(t, []string{`"X" is not a valid choice.`}, fe["membership"])
	assert.Equal(t, []string{"Enter a valid email address."}, fe["email"])
}

func TestStruct_MaxLength(t *testing.T) {
	fe := Struct(sample{Title: "toolong", Quantity: 1})
	assert.Equal(t, []string{"Ensure this field has no more than 5 characters."}, fe["title"])
}

func TestFieldErrors_ErrorIsStable(t *testing.T) {
	fe := FieldErrors{}
	fe.Add("b", "second")
	fe.Add("a", "first")
	assert.Equal(t, "validation failed: a: first; b: second", fe.Error())
}

func TestFieldErrors_Merge(t *testing.T) {
	fe := FieldErrors{"a": {"x"}}
	fe.Merge(FieldErrors{"a": {"y"}, "b": {"z"}})
	assert.Equal(t, FieldErrors{"a": {"x", "y"}, "b": {"z"}}, fe)
}
