// Package wrangler is the dataset ingress and pipeline persistence layer of
// a document ETL service.
//
// Datasets arrive as uploads, http(s) URLs, object storage URIs (gs://,
// s3://) or source version ids. Every dataset is normalized to JSON (CSV is
// converted to an array of row objects) and materialized under
//
//	<home>/.docetl/<namespace>/<files|rt>/<filename>
//
// Pipeline configurations are saved either to
// <home>/.docetl/<namespace>/pipelines/configs/<name>.yaml (local sink) or to
// versioned objects specs/<product>/<pipeline_id>/<version>.yaml (rt sink).
//
// # Packages
//
//   - pkg/dataset: the local and rt dataset providers
//   - pkg/pipeline: the local and rt pipeline sinks
//   - pkg/format: CSV to JSON conversion and JSON validation
//   - pkg/layout: environment prefixes for source version envelopes
//   - pkg/namespace: the on-disk namespace tree
//   - pkg/storage: GCS, S3 and in-memory object storage clients
//   - pkg/clients: the dataset download HTTP client
//   - pkg/compression: decompression of stored objects by extension
//
// Configuration, logging, metrics and tracing live in pkg/config, pkg/logger,
// pkg/metrics and pkg/observability. The wrangler command in cmd/wrangler
// exposes every operation from the shell:
//
//	wrangler dataset upload -n team-a --file people.csv
//	wrangler dataset load -n team-a --provider rt --source-version-id sv-123
//	wrangler pipeline save -n team-a --name extract --file extract.yaml
//	wrangler namespace check -n team-a
package wrangler
