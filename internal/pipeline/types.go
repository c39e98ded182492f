package pipeline

// Task types understood by the pipeline endpoint.
const (
	TaskTranslation = "translation"
	TaskTTS         = "tts"
)

// Request is the body of POST {base}/pipeline.
type Request struct {
	PipelineTasks []Task    `json:"pipelineTasks"`
	InputData     InputData `json:"inputData"`
}

// Task is one step of a pipeline request.
type Task struct {
	TaskType string     `json:"taskType"`
	Config   TaskConfig `json:"config"`
}

// TaskConfig configures a pipeline task.
type TaskConfig struct {
	Language     Language `json:"language"`
	ServiceID    string   `json:"serviceId"`
	Gender       string   `json:"gender,omitempty"`
	SamplingRate int      `json:"samplingRate,omitempty"`
}

// Language selects source and target languages of a task.
type Language struct {
	SourceLanguage   string `json:"sourceLanguage"`
	TargetLanguage   string `json:"targetLanguage,omitempty"`
	SourceScriptCode string `json:"sourceScriptCode,omitempty"`
}

// InputData carries the task input.
type InputData struct {
	Input []Input `json:"input"`
}

// Input is a single source text.
type Input struct {
	Source string `json:"source"`
}

// Response is the pipeline reply.
type Response struct {
	PipelineResponse []TaskResponse `json:"pipelineResponse"`
}

// TaskResponse holds the result of one task.
type TaskResponse struct {
	TaskType string   `json:"taskType,omitempty"`
	Output   []Output `json:"output,omitempty"`
	Audio    []Audio  `json:"audio,omitempty"`
}

// Output is a translated text.
type Output struct {
	Source string `json:"source,omitempty"`
	Target string `json:"target"`
}

// Audio is a synthesized clip, base64 encoded.
type Audio struct {
	AudioContent string `json:"audioContent"`
	AudioURI     string `json:"audioUri,omitempty"`
}

// Translation is the input of Client.Translate.
type Translation struct {
	ServiceID      string
	SourceLanguage string
	TargetLanguage string
	Content        string
}

// Synthesis is the input of Client.Synthesize.
type Synthesis struct {
	ServiceID    string
	Language     string
	ScriptCode   string
	Gender       string
	SamplingRate int
	Text         string
}
