package events

const (
	// KindUserAudioLevel identifies the loudness of a captured input frame.
	KindUserAudioLevel Kind = "user_input.audio_level"
	// KindUserSpeechStarted identifies start of user speech activity.
	KindUserSpeechStarted Kind = "user_input.speech_started"
	// KindUserSpeechEnded identifies end of user speech activity.
	KindUserSpeechEnded Kind = "user_input.speech_ended"
	// KindUserTranscriptInterimUpdated identifies mutable interim transcript updates.
	KindUserTranscriptInterimUpdated Kind = "user_input.transcript_interim_updated"
	// KindUserTranscriptFinal identifies a final transcript, spoken or typed.
	KindUserTranscriptFinal Kind = "user_input.transcript_final"
)

// UserAudioLevel carries the normalized RMS level (0 to 1) of an input frame.
type UserAudioLevel struct {
	Base
	Level float64
}

func NewUserAudioLevel(level float64) UserAudioLevel {
	return UserAudioLevel{Base: NewBase(KindUserAudioLevel), Level: level}
}

type UserSpeechStarted struct{ Base }

func NewUserSpeechStarted() UserSpeechStarted {
	return UserSpeechStarted{Base: NewBase(KindUserSpeechStarted)}
}

type UserSpeechEnded struct{ Base }

func NewUserSpeechEnded() UserSpeechEnded {
	return UserSpeechEnded{Base: NewBase(KindUserSpeechEnded)}
}

// UserTranscriptInterimUpdated carries the mutable interim transcript snapshot.
type UserTranscriptInterimUpdated struct {
	Base
	Transcript string
}

func NewUserTranscriptInterimUpdated(transcript string) UserTranscriptInterimUpdated {
	return UserTranscriptInterimUpdated{Base: NewBase(KindUserTranscriptInterimUpdated), Transcript: transcript}
}

// UserTranscriptFinal carries a final transcript. Typed is set when it did not
// come from the recognition engine.
type UserTranscriptFinal struct {
	Base
	Transcript string
	Typed      bool
}

func NewUserTranscriptFinal(transcript string, typed bool) UserTranscriptFinal {
	return UserTranscriptFinal{Base: NewBase(KindUserTranscriptFinal), Transcript: transcript, Typed: typed}
}
