package config

const (
	ttsIndoAryan = "ai4bharat/indic-tts-coqui-indo_aryan-gpu--t4"
	ttsDravidian = "ai4bharat/indic-tts-coqui-dravidian-gpu--t4"
	ttsMisc      = "ai4bharat/indic-tts-coqui-misc-gpu--t4"
)

// LanguageRoute selects the speech synthesis service for a language.
type LanguageRoute struct {
	ServiceID        string `json:"service_id"         yaml:"service_id"`
	SourceLanguage   string `json:"source_language"    yaml:"source_language"`
	SourceScriptCode string `json:"source_script_code" yaml:"source_script_code"`
}

// DefaultRoutes returns the built-in language route table. A language may
// appear more than once; lookups use the first entry.
func DefaultRoutes() []LanguageRoute {
	return []LanguageRoute{
		{ServiceID: ttsIndoAryan, SourceLanguage: "as", SourceScriptCode: "Beng"},
		{ServiceID: ttsIndoAryan, SourceLanguage: "bn", SourceScriptCode: "Beng"},
		{ServiceID: ttsMisc, SourceLanguage: "brx", SourceScriptCode: "Deva"},
		{ServiceID: ttsMisc, SourceLanguage: "en", SourceScriptCode: "Latn"},
		{ServiceID: ttsIndoAryan, SourceLanguage: "gu", SourceScriptCode: "Gujr"},
		{ServiceID: ttsIndoAryan, SourceLanguage: "hi", SourceScriptCode: "Deva"},
		{ServiceID: ttsDravidian, SourceLanguage: "kn", SourceScriptCode: "Knda"},
		{ServiceID: ttsDravidian, SourceLanguage: "ml", SourceScriptCode: "Mlym"},
		{ServiceID: ttsMisc, SourceLanguage: "mni", SourceScriptCode: "Beng"},
		{ServiceID: ttsMisc, SourceLanguage: "mni", SourceScriptCode: "Mtei"},
		{ServiceID: ttsIndoAryan, SourceLanguage: "mr", SourceScriptCode: "Deva"},
		{ServiceID: ttsIndoAryan, SourceLanguage: "or", SourceScriptCode: "Orya"},
		{ServiceID: ttsIndoAryan, SourceLanguage: "pa", SourceScriptCode: "Guru"},
		{ServiceID: ttsIndoAryan, SourceLanguage: "raj", SourceScriptCode: "Deva"},
		{ServiceID: ttsDravidian, SourceLanguage: "ta", SourceScriptCode: "Taml"},
		{ServiceID: ttsDravidian, SourceLanguage: "te", SourceScriptCode: "Telu"},
	}
}

// Route returns the first route configured for language.
func (p *PipelineConfig) Route(language string) (LanguageRoute, bool) {
	for _, r := range p.Routes {
		if r.SourceLanguage == language {
			return r, true
		}
	}
	return LanguageRoute{}, false
}
