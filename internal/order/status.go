package order

type Status string

const (
	StatusPending  Status = "P"
	StatusComplete Status = "C"
	StatusFailed   Status = "F"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusComplete, StatusFailed:
		return true
	}
	return false
}
