package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"syscall"

	appErrors "github.com/noah-isme/team-calendar/pkg/errors"
)

// storeError maps a gateway failure onto STORE_UNAVAILABLE when the store
// could not be reached and INTERNAL_ERROR otherwise.
func storeError(err error, message string) *appErrors.Error {
	if isConnectivityError(err) {
		return appErrors.WrapAs(appErrors.ErrStoreUnavailable, err, message)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func isConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
