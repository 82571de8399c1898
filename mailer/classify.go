package mailer

import (
	"context"
	"errors"
	"net"
	"net/textproto"
	"strings"
)

// ErrorClass tells the dispatcher whether a failed attempt is worth retrying
type ErrorClass int

const (
	// ClassTransient covers connection, timeout and temporary server
	// failures. Retried a bounded number of times.
	ClassTransient ErrorClass = iota
	// ClassPermanent covers authentication and recipient errors. Never
	// retried.
	ClassPermanent
)

// Classify maps a send error to its retry class.
//
// Permanent: SMTP authentication failures (530/534/535) and recipient
// refusals (550/551/553). Transient: timeouts, refused connections and
// temporary (4xx) server responses.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassTransient
	}

	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		switch tpErr.Code {
		case 530, 534, 535:
			return ClassPermanent
		case 550, 551, 553:
			return ClassPermanent
		}
		if tpErr.Code >= 400 && tpErr.Code < 500 {
			return ClassTransient
		}
		// Other 5xx responses are rejections, not outages
		if tpErr.Code >= 500 {
			return ClassPermanent
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ClassTransient
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTransient
	}

	// net/smtp auth failures sometimes arrive as plain error strings
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "auth") || strings.Contains(msg, "credentials") {
		return ClassPermanent
	}

	return ClassTransient
}
