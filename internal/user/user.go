package user

import "time"

// DateLayout is the wire format of birth_date.
const DateLayout = "2006-01-02"

type User struct {
	ID         int64     `json:"id"`
	FirstName  string    `json:"first_name"`
	SecondName string    `json:"second_name"`
	PhoneNum   string    `json:"phone_num"`
	EmailAdd   string    `json:"email_add"`
	BirthDate  time.Time `json:"birth_date"`
}

// SearchCriteria holds the optional search_by filters. A nil field was not
// provided by the caller; an empty string is still a provided value.
type SearchCriteria struct {
	FirstName  *string
	SecondName *string
	EmailAdd   *string
}

// Date truncates t to its calendar date at midnight UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
