package formgw

import (
	"regexp"

	"github.com/aelexs/smsgateway/internal/domain"
)

var originatorPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,11}$`)

// Originator is the sender ID shown to the recipient: 1-11 alphanumerics.
type Originator struct {
	value string
}

// NewOriginator validates raw. The second result is false when raw is not a
// valid sender ID.
func NewOriginator(raw string) (Originator, bool) {
	if !originatorPattern.MatchString(raw) {
		return Originator{}, false
	}
	return Originator{value: raw}, true
}

func (o Originator) String() string { return o.value }
func (o Originator) IsZero() bool   { return o.value == "" }

// Config holds the account credentials and sender ID.
type Config struct {
	Username   string
	Password   domain.SecretString
	Originator Originator
}

// NewConfig builds a Config. It reports false, and no config, when the
// originator is invalid; this is the only place the originator is checked.
func NewConfig(username string, password domain.SecretString, originator string) (Config, bool) {
	o, ok := NewOriginator(originator)
	if !ok {
		return Config{}, false
	}
	return Config{
		Username:   username,
		Password:   password,
		Originator: o,
	}, true
}
