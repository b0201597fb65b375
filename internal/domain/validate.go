package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	mustRegister(validate, "condition", enumValidator(
		ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor, ConditionNeedsAttention,
	))
	mustRegister(validate, "cleanliness", enumValidator(
		CleanlinessProfessional, CleanlinessDomestic, CleanlinessGood, CleanlinessFair, CleanlinessPoor, CleanlinessDirty,
	))
	mustRegister(validate, "metertype", enumValidator(MeterStandard, MeterPAYG))
	mustRegister(validate, "answer", enumValidator(
		AnswerUnanswered, AnswerYes, AnswerNo, AnswerNotApplicable,
	))
	mustRegister(validate, "signer", enumValidator(
		SignerTenant, SignerClerk, SignerLandlord, SignerOther,
	))
}

// mustRegister panics when a tag cannot be registered; an unregistered tag
// would otherwise surface as a panic on first use.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("domain: registering %q validation: %v", tag, err))
	}
}

// enumValidator accepts string-kinded fields whose value is one of allowed.
func enumValidator[T ~string](allowed ...T) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := T(fl.Field().String())
		for _, a := range allowed {
			if v == a {
				return true
			}
		}
		return false
	}
}

// validateStruct runs the tag validations on s and wraps failures in
// ErrValidation.
func validateStruct(s any) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}
