package userservice

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sushihentaime/postline/internal/common"
)

var (
	ErrAuthenticationFailure = errors.New("invalid authentication credentials")
)

func NewUserService(db *sql.DB, mb common.MessageProducer, logger *slog.Logger) *UserService {
	return &UserService{
		m:      newUserModel(db),
		mb:     mb,
		logger: logger,
	}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// Register creates the user and its profile in one transaction.
func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*User, error) {
	v := common.NewValidator()
	validateUsername(v, req.Username)
	validateEmail(v, req.Email)
	validatePassword(v, req.Password)
	validateFullName(v, req.FullName)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	u := User{
		Email: req.Email,
		Profile: Profile{
			Username: req.Username,
			FullName: nullString(req.FullName),
		},
	}

	err := u.Password.set(req.Password)
	if err != nil {
		return nil, err
	}

	tx, err := s.m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	err = s.m.insertUser(tx, ctx, &u)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	u.Profile.ID = u.ID

	err = s.m.insertProfile(tx, ctx, &u.Profile)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &u, nil
}

// LoginUser checks the credentials and issues a new bearer token.
func (s *UserService) LoginUser(ctx context.Context, username, password string) (*AuthToken, error) {
	v := common.NewValidator()
	v.Check(username != "", "username", "must be provided")
	v.Check(password != "", "password", "must be provided")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	user, err := s.m.getUserByUsername(ctx, username)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRecordNotFound):
			return nil, ErrAuthenticationFailure
		default:
			return nil, err
		}
	}

	ok, err := user.Password.compare(password)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrAuthenticationFailure
	}

	// rehash passwords stored with an outdated cost
	if cost, err := bcrypt.Cost(user.Password.hash); err == nil && cost != passwordCost {
		if err := user.Password.set(password); err != nil {
			return nil, err
		}

		if err := s.m.updateUserPassword(ctx, user.Password, user.ID, user.Version); err != nil {
			return nil, err
		}
	}

	tx, err := s.m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	err = s.m.deleteExpiredAuthTokens(tx, ctx, user.ID)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	token, err := s.m.createAuthToken(tx, ctx, user.ID)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return token, nil
}

func (s *UserService) GetUserByAccessToken(ctx context.Context, token string) (*User, error) {
	v := common.NewValidator()
	ValidateToken(v, token)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.getUserByToken(ctx, hashToken(token))
}

// LogoutUser revokes every token of the user.
func (s *UserService) LogoutUser(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return common.ErrUnauthorized
	}

	tx, err := s.m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	err = s.m.deleteAuthTokens(tx, ctx, userID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (s *UserService) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return s.m.getProfileByID(ctx, id)
}

func (s *UserService) GetProfileByUsername(ctx context.Context, username string) (*Profile, error) {
	return s.m.getProfileByUsername(ctx, username)
}

type UpdateProfileRequest struct {
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	Bio       string `json:"bio"`
	Website   string `json:"website"`
	AvatarURL string `json:"avatar_url"`
}

// UpdateProfile overwrites the caller's own profile. Empty optional fields are stored as NULL.
func (s *UserService) UpdateProfile(ctx context.Context, callerID uuid.UUID, req *UpdateProfileRequest) (*Profile, error) {
	if callerID == uuid.Nil {
		return nil, common.ErrUnauthorized
	}

	v := common.NewValidator()
	validateUsername(v, req.Username)
	validateFullName(v, req.FullName)
	validateBio(v, req.Bio)
	validateURLField(v, req.Website, "website")
	validateURLField(v, req.AvatarURL, "avatar_url")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	p := Profile{
		ID:        callerID,
		Username:  req.Username,
		FullName:  nullString(req.FullName),
		Bio:       nullString(req.Bio),
		Website:   nullString(req.Website),
		AvatarURL: nullString(req.AvatarURL),
	}

	err := s.m.updateProfile(ctx, &p)
	if err != nil {
		return nil, err
	}

	common.NotifyContentChanged(ctx, s.mb, s.logger, common.ContentChanged{Resource: common.ResourceProfile, ID: p.ID})

	return &p, nil
}

func (u *User) IsAnonymous() bool {
	return u == &AnonymousUser
}

func nullString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
