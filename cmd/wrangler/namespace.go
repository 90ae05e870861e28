package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/wrangler/pkg/errors"
	"github.com/ajitpratap0/wrangler/pkg/namespace"
)

func (a *app) namespaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "namespace",
		Short: "Manage namespace directories",
	}
	cmd.AddCommand(a.namespaceCheckCmd(), a.namespaceDocumentsCmd())
	return cmd
}

func (a *app) namespaceCheckCmd() *cobra.Command {
	var ns string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Create a namespace if missing and report whether it existed",
		RunE: func(cmd *cobra.Command, args []string) error {
			existed, err := namespace.New(a.cfg.HomeDir).Ensure(ns)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]bool{"exists": existed})
		},
	}
	cmd.Flags().StringVarP(&ns, "namespace", "n", "", "Namespace (required)")
	_ = cmd.MarkFlagRequired("namespace")
	return cmd
}

func (a *app) namespaceDocumentsCmd() *cobra.Command {
	var ns string

	cmd := &cobra.Command{
		Use:   "documents FILE...",
		Short: "Copy documents into <namespace>/documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs := make([]namespace.Document, 0, len(args))
			for _, path := range args {
				content, err := os.ReadFile(path) //nolint:gosec // G304: path is supplied by the operator
				if err != nil {
					return errors.Wrap(err, errors.ErrorTypeNotFound, "Failed to read document").
						WithDetail("path", path)
				}
				docs = append(docs, namespace.Document{Name: filepath.Base(path), Content: content})
			}

			saved, err := namespace.New(a.cfg.HomeDir).SaveDocuments(ns, docs)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{"documents": saved})
		},
	}
	cmd.Flags().StringVarP(&ns, "namespace", "n", "", "Namespace (required)")
	_ = cmd.MarkFlagRequired("namespace")
	return cmd
}
