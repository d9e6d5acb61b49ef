package reporter

import (
	"sync"

	"github.com/TEENet-io/bridge-mirror/common"
	"github.com/TEENet-io/bridge-mirror/numeric"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// registerValidators adds the identifier tags used by request bodies to
// gin's validator.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("evmaddr", func(fl validator.FieldLevel) bool {
			_, err := common.ParseEvmAddress(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("txhash", func(fl validator.FieldLevel) bool {
			_, err := common.ParseTxHash(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("principal", func(fl validator.FieldLevel) bool {
			_, err := common.ParsePrincipal(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("subaccount", func(fl validator.FieldLevel) bool {
			_, err := common.ParseSubaccount(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
			_, err := numeric.ParseAmount(fl.Field().String())
			return err == nil
		})
	})
}
