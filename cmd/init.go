package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/severin-lang/rotabak/pkg/config"
	"github.com/severin-lang/rotabak/pkg/rlog"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default config file in the backup root",
	Long: `Write a default ` + config.ConfigFileName + ` into the backup root given by
--target. An existing config file is not overwritten unless --force is set.`,
	RunE: runInit,
}

var initForceFlag bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForceFlag, "force", false, "overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	if targetFlag == "" {
		return fmt.Errorf("the --target flag is required for the init operation")
	}

	absRoot, err := filepath.Abs(targetFlag)
	if err != nil {
		return fmt.Errorf("could not determine absolute path for backup root %s: %w", targetFlag, err)
	}

	if !initForceFlag && config.Exists(absRoot) {
		return fmt.Errorf("config file already exists in %s, use --force to overwrite", absRoot)
	}

	cfg := config.NewDefault()
	cfg.BackupRoot = absRoot
	if err := config.Generate(cfg); err != nil {
		return err
	}

	rlog.Info("Backup root initialized", "path", absRoot)
	return nil
}
