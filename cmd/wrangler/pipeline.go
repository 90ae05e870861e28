package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/wrangler/pkg/errors"
	"github.com/ajitpratap0/wrangler/pkg/models"
	"github.com/ajitpratap0/wrangler/pkg/pipeline"
)

func (a *app) pipelineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Persist pipeline configurations",
	}
	cmd.AddCommand(a.pipelineSaveCmd())
	return cmd
}

func (a *app) pipelineSaveCmd() *cobra.Command {
	var (
		ns, name, file, kind string
		meta                 models.PipelineMetadata
	)

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save a pipeline YAML document",
		Long: `Save a pipeline YAML document with the configured sink.

The local sink overwrites <home>/.docetl/<namespace>/pipelines/configs/<name>.yaml.
The rt sink uploads specs/<product>/<pipeline_id>/<version>.yaml, generating a
timestamp version when --version is not given.

Examples:
  wrangler pipeline save -n team-a --name extract --file extract.yaml
  cat extract.yaml | wrangler pipeline save -n team-a --name extract --sink rt --owner ada`,
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readSpec(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			var doc yaml.Node
			if err := yaml.Unmarshal(content, &doc); err != nil {
				return errors.Wrap(err, errors.ErrorTypeInvalidArgument, "Invalid pipeline YAML")
			}

			sink, err := pipeline.New(a.cfg, kind, pipeline.WithLogger(a.logger))
			if err != nil {
				return err
			}
			if c, ok := sink.(io.Closer); ok {
				defer func() { _ = c.Close() }()
			}

			result, err := sink.Save(commandContext(cmd), pipeline.SaveRequest{
				Namespace: ns,
				Name:      name,
				YAML:      string(content),
				Metadata:  meta,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&ns, "namespace", "n", "", "Target namespace (required)")
	f.StringVar(&name, "name", "", "Pipeline name (required)")
	f.StringVarP(&file, "file", "f", "-", "Pipeline YAML file, or - for stdin")
	f.StringVar(&kind, "sink", "", "Pipeline sink (local, rt); defaults to pipeline_sink")
	f.StringVar(&meta.PipelineID, "pipeline-id", "", "Pipeline id; defaults to --name")
	f.StringVar(&meta.Version, "version", "", "Version label")
	f.StringVar(&meta.Owner, "owner", "", "Owner recorded in the manifest")
	f.StringVar(&meta.InputPath, "input-path", "", "Dataset input path echoed in the result")
	f.StringVar(&meta.OutputPath, "output-path", "", "Output path echoed in the result")
	f.StringToStringVar(&meta.Extra, "meta", nil, "Extra manifest entries (key=value)")
	_ = cmd.MarkFlagRequired("namespace")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func readSpec(stdin io.Reader, file string) ([]byte, error) {
	if file == "-" {
		content, err := io.ReadAll(stdin)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "Failed to read pipeline from stdin")
		}
		return content, nil
	}
	content, err := os.ReadFile(file) //nolint:gosec // G304: path is supplied by the operator
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeNotFound, "Failed to read pipeline file").
			WithDetail("path", file)
	}
	return content, nil
}
