package service

// Deps bundles the services handed to the transport layer.
type Deps struct {
	STT         *STT
	Chat        *Chat
	Translation *Translation
}
