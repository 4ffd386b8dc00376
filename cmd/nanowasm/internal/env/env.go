// Package env maps environment variables onto unset cobra flags, so a flag
// left at its default can still be supplied as NANOWASM_<NAME> instead of
// -<name> on the command line.
package env

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const globalPrefix = "nanowasm"

// Bind applies any NANOWASM_<FLAG> environment variable to a flag of
// command that was not explicitly set on the command line.
func Bind(command *cobra.Command) error {
	var errs []string
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvPrefix(globalPrefix)

	command.Flags().VisitAll(func(f *pflag.Flag) {
		name := strings.ReplaceAll(f.Name, "-", "_")
		if !f.Changed && v.IsSet(name) {
			if err := command.Flags().Set(f.Name, fmt.Sprintf("%v", v.Get(name))); err != nil {
				errs = append(errs, err.Error())
			}
		}
	})

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("error mapping environment variables to flags: %s", strings.Join(errs, "; "))
}
