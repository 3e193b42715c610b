package common

const (
	EnvKeyGoEnv string = "GO_ENV"

	EnvKeyRunIntegrationTests string = "RUN_INTEGRATION_TESTS"

	EnvKeyEngineConfig string = "ENGINE_CONFIG"
	EnvKeyLogDir       string = "ENGINE_LOG_DIR"

	EnvKeyDBType string = "ENGINE_DB_TYPE"
	EnvKeyDBPath string = "ENGINE_DB_PATH"
	EnvKeyDBDSN  string = "ENGINE_DB_DSN"

	EnvKeyHttpHostPort string = "ENGINE_HTTP_HOST_PORT"

	EnvKeyWorkers          string = "ENGINE_WORKERS"
	EnvKeyOperandKind      string = "ENGINE_OPERAND_KIND"
	EnvKeyDifferenceFiscal string = "ENGINE_DIFFERENCE_FISCAL"

	EnvKeyRunRate  string = "ENGINE_RUN_RATE"
	EnvKeyRunBurst string = "ENGINE_RUN_BURST"

	LoggerNameEngine        string = "engine"
	LoggerNameStore         string = "store"
	LoggerNameLoader        string = "loader"
	LoggerNameRestfulServer string = "restful_server"
	LoggerNameCLI           string = "cli"
	LoggerFieldCategory     string = "category"

	LoggerCategoryDifferencer  string = "differencer"
	LoggerCategoryAllocation   string = "allocation"
	LoggerCategoryFormula      string = "formula"
	LoggerCategoryWindow       string = "window"
	LoggerCategoryOrchestrator string = "orchestrator"
)
