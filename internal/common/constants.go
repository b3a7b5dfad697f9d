package common

// Environment variable keys
const (
	EnvConfigFile     = "CONFIG_FILE"
	EnvListenPort     = "LISTEN_PORT"
	EnvDataPath       = "DATA_PATH"
	EnvBlobEndpoint   = "BLOB_ENDPOINT"
	EnvBlobBucket     = "BLOB_BUCKET"
	EnvPendingLabel   = "PENDING_LABEL"
	EnvDeniedLabel    = "DENIED_LABEL"
	EnvForestTrees    = "FOREST_TREES"
	EnvForestMaxDepth = "FOREST_MAX_DEPTH"
	EnvForestSeed     = "FOREST_SEED"
	EnvMaxUploadBytes = "MAX_UPLOAD_BYTES"
	EnvRESTTimeout    = "REST_TIMEOUT"
)

// Upload processing statuses recorded in the history store
const (
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)
