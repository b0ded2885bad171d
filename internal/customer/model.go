package customer

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/andreasstove999/ecommerce-system/store-service-go/internal/validate"
)

type Membership string

const (
	MembershipBronze Membership = "B"
	MembershipSilver Membership = "S"
	MembershipGold   Membership = "G"
)

// PermissionViewHistory lets a non-staff user read a customer's order history.
const PermissionViewHistory = "store.view_history"

// Date is a calendar day encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.Wrap(err, "birth_date")
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return errors.Errorf("birth_date %q is not a YYYY-MM-DD date", s)
	}
	d.Time = t
	return nil
}

type Customer struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Phone      string     `json:"phone" validate:"max=255"`
	BirthDate  *Date      `json:"birth_date"`
	Membership Membership `json:"membership" validate:"omitempty,oneof=B S G"`
}

func (c Customer) Validate() error {
	return validate.Struct(c).OrNil()
}
