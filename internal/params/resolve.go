package params

import (
	"fmt"
	"slices"
)

// Layer names one source of parameter values.
type Layer string

const (
	LayerBaseline    Layer = "baseline"
	LayerFile        Layer = "cdk.json"
	LayerDefault     Layer = "default"
	LayerEnvironment Layer = "environment"
)

// Source records one layer applied during resolution, with the fields it set.
type Source struct {
	Layer  Layer    `json:"layer" yaml:"layer"`
	Name   string   `json:"name,omitempty" yaml:"name,omitempty"`
	Fields []string `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Resolution is the outcome of resolving an environment name.
type Resolution struct {
	Environment string     `json:"environment" yaml:"environment"`
	Parameters  Parameters `json:"parameters" yaml:"parameters"`
	Sources     []Source   `json:"sources" yaml:"sources"`
	// FellBack is set when the environment is not registered and the default
	// bundle was used in its place.
	FellBack bool `json:"fellBack" yaml:"fellBack"`
}

type resolveOptions struct {
	strict   bool
	file     *Input
	baseline *Parameters
}

// ResolveOption configures Resolve.
type ResolveOption func(*resolveOptions)

// WithStrict makes unknown environment names an error instead of falling back
// to the default bundle.
func WithStrict() ResolveOption {
	return func(o *resolveOptions) {
		o.strict = true
	}
}

// WithFileContext supplies parameters read from cdk.json. They sit above the
// baseline and below every registered bundle.
func WithFileContext(in Input) ResolveOption {
	return func(o *resolveOptions) {
		c := in.Clone()
		o.file = &c
	}
}

// WithBaseline replaces the compiled-in baseline.
func WithBaseline(p Parameters) ResolveOption {
	return func(o *resolveOptions) {
		c := p.Clone()
		o.baseline = &c
	}
}

// Resolve computes the parameters for env. Layers are merged field by field,
// lowest precedence first:
//
//	baseline < cdk.json context < "default" < env
//
// A cdk.json value therefore shows only for fields no registered bundle sets.
// An empty env resolves the default bundle.
func Resolve(reg *Registry, env string, opts ...ResolveOption) (Resolution, error) {
	var o resolveOptions
	for _, opt := range opts {
		opt(&o)
	}
	if reg == nil {
		reg = NewRegistry()
	}
	if env == "" {
		env = DefaultEnvironment
	}
	if err := checkName(env); err != nil {
		return Resolution{}, err
	}

	res := Resolution{Environment: env}

	p := Baseline()
	if o.baseline != nil {
		p = o.baseline.Clone()
	}
	res.Sources = append(res.Sources, Source{Layer: LayerBaseline})

	if o.file != nil {
		p = Merge(p, *o.file)
		res.Sources = append(res.Sources, Source{Layer: LayerFile, Fields: o.file.SetFields()})
	}
	if defaults, ok := reg.Get(DefaultEnvironment); ok {
		p = Merge(p, defaults)
		res.Sources = append(res.Sources, Source{Layer: LayerDefault, Name: DefaultEnvironment, Fields: defaults.SetFields()})
	}

	if env != DefaultEnvironment {
		in, ok := reg.Get(env)
		switch {
		case ok:
			p = Merge(p, in)
			res.Sources = append(res.Sources, Source{Layer: LayerEnvironment, Name: env, Fields: in.SetFields()})
		case o.strict:
			return Resolution{}, fmt.Errorf("%w: %q", ErrUnknownEnvironment, env)
		default:
			res.FellBack = true
		}
	}

	res.Parameters = p
	return res, nil
}

// Merge overlays every field set in the input onto base.
func Merge(base Parameters, in Input) Parameters {
	out := base.Clone()

	setValue(&out.BedrockRegion, in.BedrockRegion)
	setSlice(&out.AllowedIPv4AddressRanges, in.AllowedIPv4AddressRanges)
	setSlice(&out.AllowedIPv6AddressRanges, in.AllowedIPv6AddressRanges)
	setSlice(&out.IdentityProviders, in.IdentityProviders)
	setValue(&out.UserPoolDomainPrefix, in.UserPoolDomainPrefix)
	setSlice(&out.AllowedSignUpEmailDomains, in.AllowedSignUpEmailDomains)
	setSlice(&out.AutoJoinUserGroups, in.AutoJoinUserGroups)
	setValue(&out.SelfSignUpEnabled, in.SelfSignUpEnabled)
	setSlice(&out.PublishedAPIAllowedIPv4AddressRanges, in.PublishedAPIAllowedIPv4AddressRanges)
	setSlice(&out.PublishedAPIAllowedIPv6AddressRanges, in.PublishedAPIAllowedIPv6AddressRanges)
	setValue(&out.EnableRAGReplicas, in.EnableRAGReplicas)
	setValue(&out.EnableBedrockCrossRegionInference, in.EnableBedrockCrossRegionInference)
	setValue(&out.EnableLambdaSnapStart, in.EnableLambdaSnapStart)
	setValue(&out.EnableBotStore, in.EnableBotStore)
	setValue(&out.EnableBotStoreReplicas, in.EnableBotStoreReplicas)
	setValue(&out.BotStoreLanguage, in.BotStoreLanguage)
	setValue(&out.TokenValidMinutes, in.TokenValidMinutes)
	setValue(&out.AlternateDomainName, in.AlternateDomainName)
	setValue(&out.HostedZoneID, in.HostedZoneID)
	setValue(&out.DevAccessIAMRoleARN, in.DevAccessIAMRoleARN)

	return out
}

// MergeInputs overlays the fields set in over onto base without resolving
// either against the baseline.
func MergeInputs(base, over Input) Input {
	out := base.Clone()
	o := over.Clone()

	setPtr(&out.BedrockRegion, o.BedrockRegion)
	setSlice(&out.AllowedIPv4AddressRanges, o.AllowedIPv4AddressRanges)
	setSlice(&out.AllowedIPv6AddressRanges, o.AllowedIPv6AddressRanges)
	setSlice(&out.IdentityProviders, o.IdentityProviders)
	setPtr(&out.UserPoolDomainPrefix, o.UserPoolDomainPrefix)
	setSlice(&out.AllowedSignUpEmailDomains, o.AllowedSignUpEmailDomains)
	setSlice(&out.AutoJoinUserGroups, o.AutoJoinUserGroups)
	setPtr(&out.SelfSignUpEnabled, o.SelfSignUpEnabled)
	setSlice(&out.PublishedAPIAllowedIPv4AddressRanges, o.PublishedAPIAllowedIPv4AddressRanges)
	setSlice(&out.PublishedAPIAllowedIPv6AddressRanges, o.PublishedAPIAllowedIPv6AddressRanges)
	setPtr(&out.EnableRAGReplicas, o.EnableRAGReplicas)
	setPtr(&out.EnableBedrockCrossRegionInference, o.EnableBedrockCrossRegionInference)
	setPtr(&out.EnableLambdaSnapStart, o.EnableLambdaSnapStart)
	setPtr(&out.EnableBotStore, o.EnableBotStore)
	setPtr(&out.EnableBotStoreReplicas, o.EnableBotStoreReplicas)
	setPtr(&out.BotStoreLanguage, o.BotStoreLanguage)
	setPtr(&out.TokenValidMinutes, o.TokenValidMinutes)
	setPtr(&out.AlternateDomainName, o.AlternateDomainName)
	setPtr(&out.HostedZoneID, o.HostedZoneID)
	setPtr(&out.DevAccessIAMRoleARN, o.DevAccessIAMRoleARN)

	return out
}

func setPtr[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}

func setValue[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setSlice[T any](dst *[]T, src []T) {
	if src != nil {
		*dst = slices.Clone(src)
	}
}
