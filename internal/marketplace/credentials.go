package marketplace

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/rafacastellanos/listkeeper-backend/pkg/enums"
	pkgerrors "github.com/rafacastellanos/listkeeper-backend/pkg/errors"
)

var validate = validator.New()

// Credentials carries everything needed to act on one user's marketplace
// account. Validated before any sync run touches the store.
type Credentials struct {
	UserID      uuid.UUID             `validate:"required"`
	Marketplace enums.MarketplaceType `validate:"required"`
	AccessToken string                `validate:"required,min=8"`
	LocationID  string                `validate:"omitempty,min=1"`
}

// Validate checks the credential preconditions. Failures are fatal to the
// enclosing run and must abort before any writes.
func (c Credentials) Validate() error {
	if c.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !c.Marketplace.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown marketplace")
	}
	if err := validate.Struct(c); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid marketplace credentials")
	}
	return nil
}
