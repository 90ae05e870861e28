package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/wrangler/pkg/dataset"
	"github.com/ajitpratap0/wrangler/pkg/errors"
)

func (a *app) datasetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Upload and load datasets",
	}
	cmd.AddCommand(a.datasetUploadCmd(), a.datasetLoadCmd())
	return cmd
}

// provider builds the dataset provider, honouring a --provider override.
func (a *app) provider(kind string) (dataset.Provider, func(), error) {
	cfg := *a.cfg
	if kind != "" {
		cfg.DataProvider = kind
	}
	p, err := dataset.New(&cfg, dataset.WithLogger(a.logger))
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeInvalidArgument, "Invalid data provider")
	}
	closeFn := func() {}
	if c, ok := p.(io.Closer); ok {
		closeFn = func() { _ = c.Close() }
	}
	return p, closeFn, nil
}

func (a *app) datasetUploadCmd() *cobra.Command {
	var ns, file, url, kind string

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Save a local file or the body of a URL under a namespace",
		Long: `Save a local file or the body of a URL under ~/.docetl/<namespace>.
CSV input is converted to a JSON array of objects; JSON is validated and kept
as is.

Examples:
  wrangler dataset upload -n team-a --file people.csv
  wrangler dataset upload -n team-a --url https://example.com/rows.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := dataset.UploadRequest{Namespace: ns, URL: url}
			if file != "" {
				content, err := os.ReadFile(file) //nolint:gosec // G304: path is supplied by the operator
				if err != nil {
					return errors.Wrap(err, errors.ErrorTypeNotFound, "Failed to read upload").
						WithDetail("path", file)
				}
				req.Upload = &dataset.Upload{Filename: filepath.Base(file), Content: content}
			}

			p, closeFn, err := a.provider(kind)
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := p.SaveUpload(commandContext(cmd), req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&ns, "namespace", "n", "", "Target namespace (required)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Local file to upload")
	cmd.Flags().StringVarP(&url, "url", "u", "", "URL to download")
	cmd.Flags().StringVar(&kind, "provider", "", "Dataset provider (local, rt); defaults to data_provider")
	_ = cmd.MarkFlagRequired("namespace")
	cmd.MarkFlagsMutuallyExclusive("file", "url")
	return cmd
}

func (a *app) datasetLoadCmd() *cobra.Command {
	var (
		req         dataset.LoadRequest
		kind        string
		contentOnly bool
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Resolve a dataset URL, path or source version id",
		Long: `Resolve a dataset and print where it was materialized.

--url accepts http(s) URLs, gs:// and s3:// object URIs (rt provider) and
local paths. --source-version-id resolves a canonical envelope (rt provider).

Examples:
  wrangler dataset load -n team-a --url ~/data/rows.json
  wrangler dataset load -n team-a --provider rt --source-version-id sv-123 --env prod`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, closeFn, err := a.provider(kind)
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := p.LoadDataset(commandContext(cmd), req)
			if err != nil {
				return err
			}
			if contentOnly {
				_, err = cmd.OutOrStdout().Write(result.Content)
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&req.Namespace, "namespace", "n", "", "Target namespace (required)")
	f.StringVarP(&req.DatasetURL, "url", "u", "", "Dataset URL, object URI or local path")
	f.StringVar(&req.SourceVersionID, "source-version-id", "", "Source version id to resolve")
	f.StringVar(&req.ProjectID, "project-id", "", "Project id recorded in metadata")
	f.StringVar(&req.Subset, "subset", "", "Subset recorded in metadata")
	f.StringVar(&req.Env, "env", "", "Layout environment; defaults to layout.default_env")
	f.StringVar(&req.CanonicalSourceID, "canonical-source-id", "", "Canonical source id; defaults to \"document\"")
	f.StringVar(&kind, "provider", "", "Dataset provider (local, rt); defaults to data_provider")
	f.BoolVar(&contentOnly, "content", false, "Print the dataset content instead of the result")
	_ = cmd.MarkFlagRequired("namespace")
	return cmd
}
