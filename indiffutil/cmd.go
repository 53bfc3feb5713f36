/*
Copyright © 2019 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package indiffutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/indiff"
	"github.com/spatialmodel/indiff/coord"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	earthRadius, err := coord.RadiusMeters(coord.EarthRadius)
	if err != nil {
		panic(err)
	}
	opCmds := []*pflag.FlagSet{diffCmd.Flags(), derivCmd.Flags(), advectCmd.Flags(), advect3DCmd.Flags(), profileCmd.Flags()}
	derivCmds := []*pflag.FlagSet{derivCmd.Flags(), advectCmd.Flags(), advect3DCmd.Flags(), profileCmd.Flags()}
	etaCmds := []*pflag.FlagSet{derivCmd.Flags(), advectCmd.Flags(), advect3DCmd.Flags(), profileCmd.Flags(), etaCmd.Flags()}
	outCmds := []*pflag.FlagSet{diffCmd.Flags(), derivCmd.Flags(), advectCmd.Flags(), advect3DCmd.Flags(), etaCmd.Flags()}

	// Options are the configuration options available to indiff.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "loglevel",
			usage: `
              loglevel sets the logging level: debug, info, warning,
              or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "InputFile",
			usage: `
              InputFile is the path to the netCDF input file. It can be
              a local path, an http(s) URL, or a blob storage location
              starting with gs://, s3://, or file://.`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   append(append([]*pflag.FlagSet{}, opCmds...), etaCmd.Flags()),
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path where the output file should be
              written. It is a netCDF file, except for the profile command
              which writes a PNG image. Blob storage locations are
              allowed.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   append(append([]*pflag.FlagSet{}, opCmds...), etaCmd.Flags()),
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables specifies additional variables to write
              to the output file, as a map of variable names to
              expressions. The expressions can use the input and result
              variables and the functions exp, abs, sum, and max.`,
			defaultVal: map[string]string{},
			flagsets:   outCmds,
		},
		{
			name: "variables",
			usage: `
              variables lists the names of the variables to operate on.`,
			shorthand:  "v",
			defaultVal: []string{},
			flagsets:   opCmds,
		},
		{
			name: "dim",
			usage: `
              dim is the dimension to operate along.`,
			shorthand:  "d",
			defaultVal: "x",
			flagsets:   opCmds,
		},
		{
			name: "kind",
			usage: `
              kind is the stencil kind: forward, backward, or centered.`,
			shorthand:  "k",
			defaultVal: "centered",
			flagsets:   opCmds,
		},
		{
			name: "spacing",
			usage: `
              spacing is the number of grid points between stencil
              points. It must be a positive integer.`,
			defaultVal: 1,
			flagsets:   opCmds,
		},
		{
			name: "order",
			usage: `
              order is the order of accuracy: 1 or 2 for one-sided
              derivatives and 2 or 4 for centered derivatives. 0 selects
              the default, which is 1 for one-sided derivatives and 2
              for centered derivatives and advection.`,
			defaultVal: 0,
			flagsets:   opCmds,
		},
		{
			name: "fill",
			usage: `
              fill specifies which edge points that lack a full stencil
              are filled with one-sided differences: none, both, left,
              or right.`,
			defaultVal: "none",
			flagsets:   opCmds,
		},
		{
			name: "workers",
			usage: `
              workers is the maximum number of goroutines used for
              each operation. 0 means the number of processors.`,
			defaultVal: 0,
			flagsets:   opCmds,
		},
		{
			name: "coord",
			usage: `
              coord is the type of coordinate along dim: cartesian, x, y,
              z, pressure, sigma, lon, lat, or eta.`,
			defaultVal: "cartesian",
			flagsets:   derivCmds,
		},
		{
			name: "coordvar",
			usage: `
              coordvar is the variable holding the coordinate values.
              By default the coordinate of each variable along dim is
              used.`,
			defaultVal: "",
			flagsets:   derivCmds,
		},
		{
			name: "cyclic",
			usage: `
              cyclic specifies whether the coordinate wraps around, as
              longitude does.`,
			defaultVal: false,
			flagsets:   derivCmds,
		},
		{
			name: "circumference",
			usage: `
              circumference is the period of a cyclic cartesian
              coordinate, in the units of the coordinate.`,
			defaultVal: 0.,
			flagsets:   derivCmds,
		},
		{
			name: "radius",
			usage: `
              radius is the planetary radius in meters.`,
			defaultVal: earthRadius,
			flagsets:   derivCmds,
		},
		{
			name: "oper",
			usage: `
              oper is the operator for latitude derivatives: grad for
              gradients or divg for divergences.`,
			defaultVal: "grad",
			flagsets:   derivCmds,
		},
		{
			name: "latvar",
			usage: `
              latvar is the latitude variable or dimension used by
              longitude derivatives.`,
			defaultVal: "lat",
			flagsets:   derivCmds,
		},
		{
			name: "flow",
			usage: `
              flow is the flow variable for advection.`,
			defaultVal: "u",
			flagsets:   []*pflag.FlagSet{advectCmd.Flags()},
		},
		{
			name: "flows",
			usage: `
              flows are the zonal, meridional, and vertical (omega) flow
              variables for three-dimensional advection.`,
			defaultVal: []string{"ucomp", "vcomp", "omega"},
			flagsets:   []*pflag.FlagSet{advect3DCmd.Flags()},
		},
		{
			name: "londim",
			usage: `
              londim is the longitude dimension for three-dimensional
              advection.`,
			defaultVal: "lon",
			flagsets:   []*pflag.FlagSet{advect3DCmd.Flags()},
		},
		{
			name: "latdim",
			usage: `
              latdim is the latitude dimension for three-dimensional
              advection.`,
			defaultVal: "lat",
			flagsets:   []*pflag.FlagSet{advect3DCmd.Flags()},
		},
		{
			name: "etafile",
			usage: `
              etafile is a TOML file with arrays pk and bk holding the
              hybrid sigma-pressure coefficients at the layer
              interfaces. If it is empty, the pk and bk variables in the
              input file are used.`,
			defaultVal: "",
			flagsets:   etaCmds,
		},
		{
			name: "ps",
			usage: `
              ps is the surface pressure variable, in Pa.`,
			defaultVal: "ps",
			flagsets:   etaCmds,
		},
		{
			name: "halfdim",
			usage: `
              halfdim is the dimension of the layer interfaces.`,
			defaultVal: "phalf",
			flagsets:   etaCmds,
		},
		{
			name: "fulldim",
			usage: `
              fulldim is the dimension of the layer midpoints.`,
			defaultVal: "pfull",
			flagsets:   etaCmds,
		},
		{
			name: "index",
			usage: `
              index gives the position of the profile along the other
              dimensions of the variable, in order.`,
			defaultVal: []int{},
			flagsets:   []*pflag.FlagSet{profileCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("INDIFF")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case []int:
				if option.shorthand == "" {
					set.IntSlice(option.name, option.defaultVal.([]int), option.usage)
				} else {
					set.IntSliceP(option.name, option.shorthand, option.defaultVal.([]int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(diffCmd)
	Root.AddCommand(derivCmd)
	Root.AddCommand(advectCmd)
	advectCmd.AddCommand(advect3DCmd)
	Root.AddCommand(etaCmd)
	Root.AddCommand(profileCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets the logging level.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("indiffutil: problem reading configuration file: %v", err)
		}
	}
	lvl, err := logrus.ParseLevel(Cfg.GetString("loglevel"))
	if err != nil {
		return fmt.Errorf("indiffutil: %v", err)
	}
	logrus.SetLevel(lvl)
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "indiff",
	Short: "Finite-difference derivatives of gridded data.",
	Long: `indiff calculates finite differences, derivatives, and advection terms
of gridded data in netCDF files along named dimensions.
Use the subcommands specified below to access the functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'INDIFF_var' where 'var' is the
name of the variable to be set. Many configuration variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of indiff.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("indiff v%s\n", indiff.Version)
	},
	DisableAutoGenTag: true,
}

// outputSettings reads the output file and output variables
// configuration.
func outputSettings(ctx context.Context) (outputFile string, outputVars map[string]string, err error) {
	outputFile, err = checkOutputFile(ctx, Cfg.GetString("OutputFile"))
	if err != nil {
		return "", nil, err
	}
	vars, err := GetStringMapString("OutputVariables", Cfg)
	if err != nil {
		return "", nil, err
	}
	return outputFile, checkOutputVars(vars), nil
}

// verticalConfig unmarshals the eta coordinate settings.
func verticalConfig(cfg *viper.Viper) *Vertical {
	return &Vertical{
		EtaFile: cfg.GetString("etafile"),
		HalfDim: cfg.GetString("halfdim"),
		FullDim: cfg.GetString("fulldim"),
		PsVar:   cfg.GetString("ps"),
	}
}

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Calculate finite differences",
	Long: `diff calculates finite differences of the specified variables along
dimension dim and writes them to OutputFile as variables named 'var_diff'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		op, err := OperatorConfig(Cfg)
		if err != nil {
			return err
		}
		outputFile, outputVars, err := outputSettings(ctx)
		if err != nil {
			return err
		}
		return Diff(ctx, Cfg.GetString("InputFile"), outputFile, op, outputVars)
	},
	DisableAutoGenTag: true,
}

var derivCmd = &cobra.Command{
	Use:   "deriv",
	Short: "Calculate derivatives",
	Long: `deriv calculates derivatives of the specified variables along
dimension dim with respect to the coordinate specified by coord, and writes
them to OutputFile as variables named 'var_deriv'. Derivatives along
longitude and latitude include the spherical metric terms, and derivatives
along eta are taken with respect to pressure.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		op, err := OperatorConfig(Cfg)
		if err != nil {
			return err
		}
		outputFile, outputVars, err := outputSettings(ctx)
		if err != nil {
			return err
		}
		return Deriv(ctx, Cfg.GetString("InputFile"), outputFile, op, verticalConfig(Cfg), outputVars)
	},
	DisableAutoGenTag: true,
}

var advectCmd = &cobra.Command{
	Use:   "advect",
	Short: "Calculate upwind advection",
	Long: `advect calculates the upwind advection of the specified variables
by flow variable flow along dimension dim, and writes them to OutputFile as
variables named 'var_advec'. The kind option is not used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		op, err := OperatorConfig(Cfg)
		if err != nil {
			return err
		}
		outputFile, outputVars, err := outputSettings(ctx)
		if err != nil {
			return err
		}
		return Advect(ctx, Cfg.GetString("InputFile"), outputFile, Cfg.GetString("flow"),
			op, verticalConfig(Cfg), outputVars)
	},
	DisableAutoGenTag: true,
}

var advect3DCmd = &cobra.Command{
	Use:   "3d",
	Short: "Calculate three-dimensional upwind advection",
	Long: `3d calculates the sum of the upwind advection of the specified
variables along longitude, latitude, and eta at constant pressure, and
writes them to OutputFile as variables named 'var_advec3d'. The dim and
coord options are not used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		Cfg.Set("coord", "eta")
		op, err := OperatorConfig(Cfg)
		if err != nil {
			return err
		}
		outputFile, outputVars, err := outputSettings(ctx)
		if err != nil {
			return err
		}
		flows := Cfg.GetStringSlice("flows")
		if len(flows) != 3 {
			return fmt.Errorf("indiffutil: flows needs 3 variables but has %d", len(flows))
		}
		return Advect3D(ctx, Cfg.GetString("InputFile"), outputFile,
			Cfg.GetString("londim"), Cfg.GetString("latdim"), [3]string{flows[0], flows[1], flows[2]},
			op, verticalConfig(Cfg), outputVars)
	},
	DisableAutoGenTag: true,
}

var etaCmd = &cobra.Command{
	Use:   "eta",
	Short: "Calculate pressure on hybrid sigma-pressure levels",
	Long: `eta calculates the pressure at the layer interfaces (phalf) and
midpoints (pfull) and the layer thicknesses (dp) of a hybrid sigma-pressure
grid from the surface pressure, and writes them to OutputFile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		outputFile, outputVars, err := outputSettings(ctx)
		if err != nil {
			return err
		}
		return Eta(ctx, Cfg.GetString("InputFile"), outputFile, verticalConfig(Cfg), outputVars)
	},
	DisableAutoGenTag: true,
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Plot a variable and its derivative",
	Long: `profile plots a variable and its derivative along dimension dim at the
position given by index, and writes the plot to OutputFile as a PNG image.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		op, err := OperatorConfig(Cfg)
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(ctx, Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		index, err := toIntSliceE(Cfg.Get("index"))
		if err != nil {
			return fmt.Errorf("indiffutil: parsing index: %v", err)
		}
		return Profile(ctx, Cfg.GetString("InputFile"), outputFile, op, verticalConfig(Cfg), index)
	},
	DisableAutoGenTag: true,
}
