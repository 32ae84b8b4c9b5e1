package cli

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindFlags binds each config key to its flag. A flag left unset falls back
// to the environment and then the default.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if f := flags.Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}
