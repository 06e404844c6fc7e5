package materials

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/drydock-works/drydock/internal/platform/httpx"
)

var validate = validator.New()

// MaterialInput is the create/update payload for a catalog entry.
type MaterialInput struct {
	Name      string  `json:"name" validate:"required,max=255"`
	Unit      string  `json:"unit" validate:"required,max=32"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
}

func (in MaterialInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	}
	return nil
}
