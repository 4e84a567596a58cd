package service

import "whitkirk-services/internal/record"

// Flag names a boolean property of a service.
type Flag string

const (
	FlagStreaming    Flag = "streaming"
	FlagStreamPublic Flag = "stream_public"
	FlagHasOOS       Flag = "has_oos"
	FlagFeePayable   Flag = "fee_payable"
	FlagCancelled    Flag = "cancelled"
)

// truthiness says how a raw field becomes a boolean.
type truthiness int

const (
	// byPresence is true whenever the field is present, whatever its value.
	byPresence truthiness = iota
	// byValue is true only when the field equals want exactly.
	byValue
)

type flagRule struct {
	field record.Field
	rule  truthiness
	want  string
}

var flagRules = map[Flag]flagRule{
	FlagStreaming:    {field: record.Streaming, rule: byValue, want: "Yes"},
	FlagStreamPublic: {field: record.StreamPublic, rule: byPresence},
	FlagHasOOS:       {field: record.HasOOS, rule: byPresence},
	FlagFeePayable:   {field: record.FeePayable, rule: byPresence},
	FlagCancelled:    {field: record.Cancelled, rule: byPresence},
}

// FlagValue is the raw state behind a flag.
type FlagValue struct {
	Present bool
	Raw     any
	Set     bool
}

// Flag evaluates f against its rule.
func (s *Service) Flag(f Flag) FlagValue {
	rule, ok := flagRules[f]
	if !ok {
		return FlagValue{}
	}

	v := FlagValue{Present: s.acc.Exists(rule.field)}
	if !v.Present {
		return v
	}
	v.Raw, _ = s.acc.Get(rule.field)

	switch rule.rule {
	case byPresence:
		v.Set = true
	case byValue:
		str, ok := v.Raw.(string)
		v.Set = ok && str == rule.want
	}
	return v
}

func (s *Service) IsStreaming() bool { return s.Flag(FlagStreaming).Set }
func (s *Service) IsStreamPublic() bool { return s.Flag(FlagStreamPublic).Set }
func (s *Service) HasOOS() bool { return s.Flag(FlagHasOOS).Set }
func (s *Service) IsFeePayable() bool { return s.Flag(FlagFeePayable).Set }
func (s *Service) IsCancelled() bool { return s.Flag(FlagCancelled).Set }
