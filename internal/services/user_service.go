package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/goldenline/gate"
	"github.com/diewo77/goldenline/internal/db"
	"github.com/diewo77/goldenline/internal/models"
	"github.com/diewo77/goldenline/validation"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken      = errors.New("username_taken")
	ErrEmailTaken         = errors.New("email_taken")
	ErrUsernameNotAlnum   = errors.New("username_not_alphanumeric")
	ErrPasswordMismatch   = errors.New("password_mismatch")
	ErrUserNotFound       = fmt.Errorf("user_not_found: %w", gorm.ErrRecordNotFound)
	ErrInvalidCredentials = errors.New("invalid_credentials")
)

// Permissions a user can be granted directly from the user forms.
var (
	PermViewClient   = gate.FromCodename("view_client")
	PermViewCollecte = gate.FromCodename("view_collecte")
)

// Access is the group and direct permissions requested in a user form.
type Access struct {
	Admin        bool
	ViewClient   bool
	ViewCollecte bool
}

type RegisterInput struct {
	Username        string `form:"utilisateur" validate:"required,alphanumunicode"`
	FirstName       string `form:"nom"`
	LastName        string `form:"prenom"`
	Email           string `form:"email"`
	Password        string `form:"mdp"`
	PasswordConfirm string `form:"mdp2" validate:"eqfield=Password"`
	Access
}

type UpdateInput struct {
	Username  string `form:"utilisateur" validate:"required,alphanumunicode"`
	FirstName string
	LastName  string
	Email     string
	// Password is changed only when not empty.
	Password string
	Access
}

// UserService manages accounts, groups and direct permissions.
type UserService struct {
	db *gorm.DB
	// bcrypt cost, lowered in tests
	cost int
	now  func() time.Time
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db, cost: bcrypt.DefaultCost, now: time.Now}
}

// WithCost returns a copy of the service hashing with the given bcrypt cost.
func (s *UserService) WithCost(cost int) *UserService {
	c := *s
	c.cost = cost
	return &c
}

// userRef is a bare row reference, so that updates never write back the
// loaded associations.
func userRef(u *models.User) *models.User { return &models.User{ID: u.ID} }

func (s *UserService) exists(tx *gorm.DB, column, value string) (bool, error) {
	var count int64
	if err := tx.Model(&models.User{}).Where(column+" = ?", value).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Register creates an account. Checks run in order and the first failure
// is returned: username taken, email taken, username not alphanumeric,
// passwords differ.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	tx := s.db.WithContext(ctx)
	taken, err := s.exists(tx, "username", in.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}
	if in.Email != "" {
		taken, err = s.exists(tx, "email", in.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailTaken
		}
	}
	v := validation.Struct(in)
	if v.Has("utilisateur") {
		return nil, ErrUsernameNotAlnum
	}
	if v.Has("mdp2") {
		return nil, ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, err
	}
	u := models.User{
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Password:  string(hash),
		IsActive:  true,
	}
	err = tx.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		return s.applyAccess(tx, &u, in.Access, true)
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// applyAccess sets the group and direct permissions of u. On registration
// the admin group replaces direct permissions; on update both are applied.
func (s *UserService) applyAccess(tx *gorm.DB, u *models.User, a Access, adminExclusive bool) error {
	var profile *models.Profile
	var profileID *uint
	if a.Admin {
		p, err := db.EnsureProfile(tx, models.AdminProfileName)
		if err != nil {
			return err
		}
		profile, profileID = p, &p.ID
	}
	if err := tx.Model(userRef(u)).Update("profile_id", profileID).Error; err != nil {
		return err
	}
	u.Profile, u.ProfileID = profile, profileID

	var codes []gate.Permission
	if !a.Admin || !adminExclusive {
		if a.ViewClient {
			codes = append(codes, PermViewClient)
		}
		if a.ViewCollecte {
			codes = append(codes, PermViewCollecte)
		}
	}
	perms, err := db.FindPermissions(tx, codes...)
	if err != nil {
		return err
	}
	assoc := tx.Model(userRef(u)).Association("Permissions")
	if len(perms) == 0 {
		err = assoc.Clear()
	} else {
		err = assoc.Replace(perms)
	}
	if err != nil {
		return err
	}
	u.Permissions = perms
	return nil
}

// Get loads a user by username with its group and direct permissions.
func (s *UserService) Get(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Preload("Profile").Preload("Permissions").
		Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID loads a user by id.
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns every user by id.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Update modifies the user currently named username. Checks run in order:
// new username taken, new email taken, new username not alphanumeric.
func (s *UserService) Update(ctx context.Context, username string, in UpdateInput) (*models.User, error) {
	u, err := s.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	tx := s.db.WithContext(ctx)
	if in.Username != username {
		taken, err := s.exists(tx, "username", in.Username)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrUsernameTaken
		}
	}
	if in.Email != u.Email && in.Email != "" {
		taken, err := s.exists(tx, "email", in.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailTaken
		}
	}
	if validation.Struct(in).Has("utilisateur") {
		return nil, ErrUsernameNotAlnum
	}

	updates := map[string]any{
		"username":   in.Username,
		"first_name": in.FirstName,
		"last_name":  in.LastName,
		"email":      in.Email,
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
		if err != nil {
			return nil, err
		}
		updates["password"] = string(hash)
	}
	err = tx.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(userRef(u)).Updates(updates).Error; err != nil {
			return err
		}
		return s.applyAccess(tx, u, in.Access, false)
	})
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	u.Username, u.FirstName, u.LastName, u.Email = in.Username, in.FirstName, in.LastName, in.Email
	return u, nil
}

// Delete removes the user named username and returns it.
func (s *UserService) Delete(ctx context.Context, username string) (*models.User, error) {
	u, err := s.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(userRef(u)).Association("Permissions").Clear(); err != nil {
			return err
		}
		return tx.Delete(&models.User{}, u.ID).Error
	})
	if err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	return u, nil
}

// Authenticate checks the credentials of an active user and records the
// login time.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// compare anyway so unknown usernames are not answered instantly
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil || !u.IsActive {
		return nil, ErrInvalidCredentials
	}
	now := s.now()
	if err := s.db.WithContext(ctx).Model(&u).Update("last_login", now).Error; err != nil {
		return nil, err
	}
	u.LastLogin = &now
	return &u, nil
}

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("goldenline"), bcrypt.MinCost)

// IsActive reports whether the user exists and may use a session.
func (s *UserService) IsActive(ctx context.Context, id uint) bool {
	u, err := s.GetByID(ctx, id)
	return err == nil && u.IsActive
}

// CreateSuperuser creates an active superuser in the admin group.
func (s *UserService) CreateSuperuser(ctx context.Context, username, email, password string) (*models.User, error) {
	u, err := s.Register(ctx, RegisterInput{
		Username:        username,
		Email:           email,
		Password:        password,
		PasswordConfirm: password,
		Access:          Access{Admin: true},
	})
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(userRef(u)).Update("is_superuser", true).Error; err != nil {
		return nil, err
	}
	u.IsSuperuser = true
	return u, nil
}
