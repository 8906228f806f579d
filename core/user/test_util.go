package user

import (
	"context"

	"github.com/trezcool/chuo/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a ServiceInterface whose emails are sent synchronously.
func NewServiceMock(repo Repository, mailSvc core.EmailService, logger core.Logger, conf *core.Config) ServiceInterface {
	return &serviceMock{
		service: *NewService(repo, mailSvc, logger, conf),
	}
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.Active() {
		return ErrNotFound
	}
	// run synchronously
	svc.sendPasswordResetMail(usr)
	return nil
}
