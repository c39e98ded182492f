package envvar

const (
	// VaniEnv is the environment variable used to determine the environment
	VaniEnv = "VANI_ENV"

	// VaniConfig is the environment variable used to locate the config file
	VaniConfig = "VANI_CONFIG"

	// VaniServerHTTPPort is the environment variable used to determine the HTTP port
	VaniServerHTTPPort = "VANI_SERVER_HTTP_PORT"

	// VaniServerGRPCPort is the environment variable used to determine the gRPC port
	VaniServerGRPCPort = "VANI_SERVER_GRPC_PORT"

	// VaniModelsPath is the environment variable used to override the models directory
	VaniModelsPath = "VANI_MODELS_PATH"
)

// Remote pipeline (translation and speech synthesis).
const (
	APIBaseURL          = "API_BASE_URL"
	HeaderAuthorization = "HEADER_AUTHORIZATION"
)

// Hosted provider credentials.
const (
	OpenAIAPIKey = "OPENAI_API_KEY"
	GeminiAPIKey = "GEMINI_API_KEY"
	OllamaHost   = "OLLAMA_HOST"
)

// Wake-word listener.
const (
	AccessKey     = "ACCESS_KEY"
	ModelPath     = "MODEL_PATH"
	KeywordPath   = "KEYWORD_PATH"
	RedisAddr     = "REDIS_ADDR"
	RedisPassword = "REDIS_PASSWORD"
)
