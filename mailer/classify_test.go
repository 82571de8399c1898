package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "dial tcp: i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"auth 535", &textproto.Error{Code: 535, Msg: "authentication failed"}, ClassPermanent},
		{"auth 530", &textproto.Error{Code: 530, Msg: "authentication required"}, ClassPermanent},
		{"recipient refused 550", &textproto.Error{Code: 550, Msg: "no such user"}, ClassPermanent},
		{"recipient refused 553", &textproto.Error{Code: 553, Msg: "mailbox name invalid"}, ClassPermanent},
		{"temporary 421", &textproto.Error{Code: 421, Msg: "try again later"}, ClassTransient},
		{"temporary 450", &textproto.Error{Code: 450, Msg: "mailbox busy"}, ClassTransient},
		{"other 5xx", &textproto.Error{Code: 554, Msg: "transaction failed"}, ClassPermanent},
		{"net timeout", timeoutErr{}, ClassTransient},
		{"wrapped net timeout", fmt.Errorf("send: %w", timeoutErr{}), ClassTransient},
		{"connection refused", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, ClassTransient},
		{"deadline exceeded", context.DeadlineExceeded, ClassTransient},
		{"string auth error", errors.New("535 invalid credentials"), ClassPermanent},
		{"unknown", errors.New("something broke"), ClassTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
