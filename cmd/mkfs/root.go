// Command mkfs is the host-side image-building tool: it assembles a
// boot filesystem image from a manifest of ELF binaries and patches a
// freshly linked kernel's entry address, the host-tool counterpart to
// this kernel's own runtime loader (vm.FromELF) and boot sequence
// (cmd/kernel). It runs on the build machine, never inside the kernel
// image itself.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mkfs",
		Short: "Build and patch boot images for the kernel",
	}
	root.AddCommand(newBuildCmd())
	root.AddCommand(newChentryCmd())
	return root
}

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build <manifest.yaml> <output-image>",
		Short: "Assemble an image from a YAML manifest of ELF binaries",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifestPath, outputPath := args[0], args[1]

			manifest, err := LoadManifest(manifestPath)
			if err != nil {
				return err
			}

			out, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("mkfs: create %s: %w", outputPath, err)
			}
			defer out.Close()

			if err := BuildImage(out, manifest, filepath.Dir(manifestPath)); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d files)\n", outputPath, len(manifest.Files))
			return nil
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
