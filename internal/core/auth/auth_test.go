package auth

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"

	"voxeld/internal/core/data"
)

func TestCreateAccount(t *testing.T) {
	type args struct {
		username string
		password string
		email    string
	}
	tests := map[string]struct {
		dbCreateFn func(db *gorm.DB, account *data.Account) error
		args       args
		wantedErr  error
	}{
		"database_error": {
			dbCreateFn: func(db *gorm.DB, account *data.Account) error { return fmt.Errorf("database error") },
			args:       args{username: "test", password: "test", email: "test"},
			wantedErr:  fmt.Errorf("database error"),
		},
		"happy_path": {
			dbCreateFn: func(db *gorm.DB, account *data.Account) error { return nil },
			args:       args{username: "test", password: "test", email: "a@b.c"},
			wantedErr:  nil,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			originalCreateAccount := createAccount
			defer func() {
				createAccount = originalCreateAccount
			}()
			createAccount = tt.dbCreateFn

			account, err := CreateAccount(nil, tt.args.username, tt.args.password, tt.args.email)
			if err != nil && err.Error() != tt.wantedErr.Error() {
				t.Fatalf("expected error to = %s, got = %s", tt.wantedErr, err)
			}

			if err == nil {
				if account.Username != tt.args.username {
					t.Errorf("expected account username = %s, got = %s", tt.args.username, account.Username)
				}
				if account.Password != HashPassword(tt.args.password) {
					t.Error("expected account password to equal hashed password")
				}
				if account.Email != tt.args.email {
					t.Errorf("expected account email = %s, got = %s", tt.args.email, account.Email)
				}
			}
		})
	}
}

func TestHashPassword(t *testing.T) {
	password := "password"
	hashed := HashPassword(password)

	if password == hashed {
		t.Fatalf("expected hashed password not to equal password")
	}

	for i := 0; i < 10; i++ {
		if h := HashPassword(password); hashed != h {
			t.Fatalf("password hashing is non-deterministic (expected %s, got %s)", hashed, h)
		}
	}
}

func TestVerifyAccount(t *testing.T) {
	tests := map[string]struct {
		findFn    func(db *gorm.DB, username string) (*data.Account, error)
		password  string
		wantedErr error
	}{
		"lookup_error": {
			findFn: func(db *gorm.DB, username string) (*data.Account, error) {
				return nil, fmt.Errorf("database error")
			},
			password:  "password",
			wantedErr: ErrUnknown,
		},
		"no_such_account": {
			findFn: func(db *gorm.DB, username string) (*data.Account, error) {
				return nil, nil
			},
			password:  "password",
			wantedErr: ErrInvalidCredentials,
		},
		"wrong_password": {
			findFn: func(db *gorm.DB, username string) (*data.Account, error) {
				return &data.Account{Username: username, Password: HashPassword("other")}, nil
			},
			password:  "password",
			wantedErr: ErrInvalidCredentials,
		},
		"banned": {
			findFn: func(db *gorm.DB, username string) (*data.Account, error) {
				return &data.Account{Username: username, Password: HashPassword("password"), Banned: true}, nil
			},
			password:  "password",
			wantedErr: ErrAccountBanned,
		},
		"happy_path": {
			findFn: func(db *gorm.DB, username string) (*data.Account, error) {
				return &data.Account{Username: username, Password: HashPassword("password")}, nil
			},
			password:  "password",
			wantedErr: nil,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			originalFindAccount := findAccount
			defer func() {
				findAccount = originalFindAccount
			}()
			findAccount = tt.findFn

			account, err := VerifyAccount(nil, "test", tt.password)
			if !errors.Is(err, tt.wantedErr) {
				t.Fatalf("expected error to = %v, got = %v", tt.wantedErr, err)
			}
			if err == nil && account == nil {
				t.Fatal("expected an account on successful verification")
			}
		})
	}
}
