package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/chuo/core"
	"github.com/trezcool/chuo/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// Logger is a no-op core.Logger for tests.
type Logger struct{}

var _ core.Logger = (*Logger)(nil)

func NewLogger() *Logger { return &Logger{} }

func (l *Logger) Enable(enabled bool)                 {}
func (l *Logger) Debug(msg string, args ...interface{}) {}
func (l *Logger) Info(msg string, args ...interface{})  {}
func (l *Logger) Warn(msg string, args ...interface{})  {}
func (l *Logger) Error(msg string, args ...interface{}) {}
func (l *Logger) Fatal(msg string, args ...interface{}) {}
