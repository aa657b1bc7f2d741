package params

import "slices"

// IdentityProvider configures an external sign-in source for the user pool.
type IdentityProvider struct {
	Service     string `json:"service" yaml:"service" mapstructure:"service"`
	ServiceName string `json:"serviceName,omitempty" yaml:"serviceName,omitempty" mapstructure:"serviceName"`
	SecretName  string `json:"secretName" yaml:"secretName" mapstructure:"secretName"`
}

// Input is a partial parameter bundle as registered for one environment.
// A nil field is "not set" and inherits from the layer below; a non-nil
// slice replaces the inherited list even when empty.
type Input struct {
	BedrockRegion                        *string            `json:"bedrockRegion,omitempty" yaml:"bedrockRegion,omitempty" mapstructure:"bedrockRegion"`
	AllowedIPv4AddressRanges             []string           `json:"allowedIpV4AddressRanges,omitempty" yaml:"allowedIpV4AddressRanges,omitempty" mapstructure:"allowedIpV4AddressRanges"`
	AllowedIPv6AddressRanges             []string           `json:"allowedIpV6AddressRanges,omitempty" yaml:"allowedIpV6AddressRanges,omitempty" mapstructure:"allowedIpV6AddressRanges"`
	IdentityProviders                    []IdentityProvider `json:"identityProviders,omitempty" yaml:"identityProviders,omitempty" mapstructure:"identityProviders"`
	UserPoolDomainPrefix                 *string            `json:"userPoolDomainPrefix,omitempty" yaml:"userPoolDomainPrefix,omitempty" mapstructure:"userPoolDomainPrefix"`
	AllowedSignUpEmailDomains            []string           `json:"allowedSignUpEmailDomains,omitempty" yaml:"allowedSignUpEmailDomains,omitempty" mapstructure:"allowedSignUpEmailDomains"`
	AutoJoinUserGroups                   []string           `json:"autoJoinUserGroups,omitempty" yaml:"autoJoinUserGroups,omitempty" mapstructure:"autoJoinUserGroups"`
	SelfSignUpEnabled                    *bool              `json:"selfSignUpEnabled,omitempty" yaml:"selfSignUpEnabled,omitempty" mapstructure:"selfSignUpEnabled"`
	PublishedAPIAllowedIPv4AddressRanges []string           `json:"publishedApiAllowedIpV4AddressRanges,omitempty" yaml:"publishedApiAllowedIpV4AddressRanges,omitempty" mapstructure:"publishedApiAllowedIpV4AddressRanges"`
	PublishedAPIAllowedIPv6AddressRanges []string           `json:"publishedApiAllowedIpV6AddressRanges,omitempty" yaml:"publishedApiAllowedIpV6AddressRanges,omitempty" mapstructure:"publishedApiAllowedIpV6AddressRanges"`
	EnableRAGReplicas                    *bool              `json:"enableRagReplicas,omitempty" yaml:"enableRagReplicas,omitempty" mapstructure:"enableRagReplicas"`
	EnableBedrockCrossRegionInference    *bool              `json:"enableBedrockCrossRegionInference,omitempty" yaml:"enableBedrockCrossRegionInference,omitempty" mapstructure:"enableBedrockCrossRegionInference"`
	EnableLambdaSnapStart                *bool              `json:"enableLambdaSnapStart,omitempty" yaml:"enableLambdaSnapStart,omitempty" mapstructure:"enableLambdaSnapStart"`
	EnableBotStore                       *bool              `json:"enableBotStore,omitempty" yaml:"enableBotStore,omitempty" mapstructure:"enableBotStore"`
	EnableBotStoreReplicas               *bool              `json:"enableBotStoreReplicas,omitempty" yaml:"enableBotStoreReplicas,omitempty" mapstructure:"enableBotStoreReplicas"`
	BotStoreLanguage                     *string            `json:"botStoreLanguage,omitempty" yaml:"botStoreLanguage,omitempty" mapstructure:"botStoreLanguage"`
	TokenValidMinutes                    *int               `json:"tokenValidMinutes,omitempty" yaml:"tokenValidMinutes,omitempty" mapstructure:"tokenValidMinutes"`
	AlternateDomainName                  *string            `json:"alternateDomainName,omitempty" yaml:"alternateDomainName,omitempty" mapstructure:"alternateDomainName"`
	HostedZoneID                         *string            `json:"hostedZoneId,omitempty" yaml:"hostedZoneId,omitempty" mapstructure:"hostedZoneId"`
	DevAccessIAMRoleARN                  *string            `json:"devAccessIamRoleArn,omitempty" yaml:"devAccessIamRoleArn,omitempty" mapstructure:"devAccessIamRoleArn"`
}

// Parameters is a fully resolved parameter bundle handed to the deployment tool.
type Parameters struct {
	BedrockRegion                        string             `json:"bedrockRegion" yaml:"bedrockRegion"`
	AllowedIPv4AddressRanges             []string           `json:"allowedIpV4AddressRanges" yaml:"allowedIpV4AddressRanges"`
	AllowedIPv6AddressRanges             []string           `json:"allowedIpV6AddressRanges" yaml:"allowedIpV6AddressRanges"`
	IdentityProviders                    []IdentityProvider `json:"identityProviders" yaml:"identityProviders"`
	UserPoolDomainPrefix                 string             `json:"userPoolDomainPrefix" yaml:"userPoolDomainPrefix"`
	AllowedSignUpEmailDomains            []string           `json:"allowedSignUpEmailDomains" yaml:"allowedSignUpEmailDomains"`
	AutoJoinUserGroups                   []string           `json:"autoJoinUserGroups" yaml:"autoJoinUserGroups"`
	SelfSignUpEnabled                    bool               `json:"selfSignUpEnabled" yaml:"selfSignUpEnabled"`
	PublishedAPIAllowedIPv4AddressRanges []string           `json:"publishedApiAllowedIpV4AddressRanges" yaml:"publishedApiAllowedIpV4AddressRanges"`
	PublishedAPIAllowedIPv6AddressRanges []string           `json:"publishedApiAllowedIpV6AddressRanges" yaml:"publishedApiAllowedIpV6AddressRanges"`
	EnableRAGReplicas                    bool               `json:"enableRagReplicas" yaml:"enableRagReplicas"`
	EnableBedrockCrossRegionInference    bool               `json:"enableBedrockCrossRegionInference" yaml:"enableBedrockCrossRegionInference"`
	EnableLambdaSnapStart                bool               `json:"enableLambdaSnapStart" yaml:"enableLambdaSnapStart"`
	EnableBotStore                       bool               `json:"enableBotStore" yaml:"enableBotStore"`
	EnableBotStoreReplicas               bool               `json:"enableBotStoreReplicas" yaml:"enableBotStoreReplicas"`
	BotStoreLanguage                     string             `json:"botStoreLanguage" yaml:"botStoreLanguage"`
	TokenValidMinutes                    int                `json:"tokenValidMinutes" yaml:"tokenValidMinutes"`
	AlternateDomainName                  string             `json:"alternateDomainName" yaml:"alternateDomainName"`
	HostedZoneID                         string             `json:"hostedZoneId" yaml:"hostedZoneId"`
	DevAccessIAMRoleARN                  string             `json:"devAccessIamRoleArn" yaml:"devAccessIamRoleArn"`
}

// String returns a pointer to v, for populating Input literals.
func String(v string) *string { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Clone returns a deep copy of the input.
func (in Input) Clone() Input {
	out := in
	out.BedrockRegion = clonePtr(in.BedrockRegion)
	out.AllowedIPv4AddressRanges = slices.Clone(in.AllowedIPv4AddressRanges)
	out.AllowedIPv6AddressRanges = slices.Clone(in.AllowedIPv6AddressRanges)
	out.IdentityProviders = slices.Clone(in.IdentityProviders)
	out.UserPoolDomainPrefix = clonePtr(in.UserPoolDomainPrefix)
	out.AllowedSignUpEmailDomains = slices.Clone(in.AllowedSignUpEmailDomains)
	out.AutoJoinUserGroups = slices.Clone(in.AutoJoinUserGroups)
	out.SelfSignUpEnabled = clonePtr(in.SelfSignUpEnabled)
	out.PublishedAPIAllowedIPv4AddressRanges = slices.Clone(in.PublishedAPIAllowedIPv4AddressRanges)
	out.PublishedAPIAllowedIPv6AddressRanges = slices.Clone(in.PublishedAPIAllowedIPv6AddressRanges)
	out.EnableRAGReplicas = clonePtr(in.EnableRAGReplicas)
	out.EnableBedrockCrossRegionInference = clonePtr(in.EnableBedrockCrossRegionInference)
	out.EnableLambdaSnapStart = clonePtr(in.EnableLambdaSnapStart)
	out.EnableBotStore = clonePtr(in.EnableBotStore)
	out.EnableBotStoreReplicas = clonePtr(in.EnableBotStoreReplicas)
	out.BotStoreLanguage = clonePtr(in.BotStoreLanguage)
	out.TokenValidMinutes = clonePtr(in.TokenValidMinutes)
	out.AlternateDomainName = clonePtr(in.AlternateDomainName)
	out.HostedZoneID = clonePtr(in.HostedZoneID)
	out.DevAccessIAMRoleARN = clonePtr(in.DevAccessIAMRoleARN)
	return out
}

// Clone returns a deep copy of the parameters.
func (p Parameters) Clone() Parameters {
	out := p
	out.AllowedIPv4AddressRanges = slices.Clone(p.AllowedIPv4AddressRanges)
	out.AllowedIPv6AddressRanges = slices.Clone(p.AllowedIPv6AddressRanges)
	out.IdentityProviders = slices.Clone(p.IdentityProviders)
	out.AllowedSignUpEmailDomains = slices.Clone(p.AllowedSignUpEmailDomains)
	out.AutoJoinUserGroups = slices.Clone(p.AutoJoinUserGroups)
	out.PublishedAPIAllowedIPv4AddressRanges = slices.Clone(p.PublishedAPIAllowedIPv4AddressRanges)
	out.PublishedAPIAllowedIPv6AddressRanges = slices.Clone(p.PublishedAPIAllowedIPv6AddressRanges)
	return out
}

// Input converts resolved parameters back into an Input with every field set.
func (p Parameters) Input() Input {
	c := p.Clone()
	return Input{
		BedrockRegion:                        &c.BedrockRegion,
		AllowedIPv4AddressRanges:             nonNil(c.AllowedIPv4AddressRanges),
		AllowedIPv6AddressRanges:             nonNil(c.AllowedIPv6AddressRanges),
		IdentityProviders:                    nonNil(c.IdentityProviders),
		UserPoolDomainPrefix:                 &c.UserPoolDomainPrefix,
		AllowedSignUpEmailDomains:            nonNil(c.AllowedSignUpEmailDomains),
		AutoJoinUserGroups:                   nonNil(c.AutoJoinUserGroups),
		SelfSignUpEnabled:                    &c.SelfSignUpEnabled,
		PublishedAPIAllowedIPv4AddressRanges: nonNil(c.PublishedAPIAllowedIPv4AddressRanges),
		PublishedAPIAllowedIPv6AddressRanges: nonNil(c.PublishedAPIAllowedIPv6AddressRanges),
		EnableRAGReplicas:                    &c.EnableRAGReplicas,
		EnableBedrockCrossRegionInference:    &c.EnableBedrockCrossRegionInference,
		EnableLambdaSnapStart:                &c.EnableLambdaSnapStart,
		EnableBotStore:                       &c.EnableBotStore,
		EnableBotStoreReplicas:               &c.EnableBotStoreReplicas,
		BotStoreLanguage:                     &c.BotStoreLanguage,
		TokenValidMinutes:                    &c.TokenValidMinutes,
		AlternateDomainName:                  &c.AlternateDomainName,
		HostedZoneID:                         &c.HostedZoneID,
		DevAccessIAMRoleARN:                  &c.DevAccessIAMRoleARN,
	}
}

// SetFields returns the JSON names of the fields the input sets.
func (in Input) SetFields() []string {
	var out []string
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(in.BedrockRegion != nil, "bedrockRegion")
	add(in.AllowedIPv4AddressRanges != nil, "allowedIpV4AddressRanges")
	add(in.AllowedIPv6AddressRanges != nil, "allowedIpV6AddressRanges")
	add(in.IdentityProviders != nil, "identityProviders")
	add(in.UserPoolDomainPrefix != nil, "userPoolDomainPrefix")
	add(in.AllowedSignUpEmailDomains != nil, "allowedSignUpEmailDomains")
	add(in.AutoJoinUserGroups != nil, "autoJoinUserGroups")
	add(in.SelfSignUpEnabled != nil, "selfSignUpEnabled")
	add(in.PublishedAPIAllowedIPv4AddressRanges != nil, "publishedApiAllowedIpV4AddressRanges")
	add(in.PublishedAPIAllowedIPv6AddressRanges != nil, "publishedApiAllowedIpV6AddressRanges")
	add(in.EnableRAGReplicas != nil, "enableRagReplicas")
	add(in.EnableBedrockCrossRegionInference != nil, "enableBedrockCrossRegionInference")
	add(in.EnableLambdaSnapStart != nil, "enableLambdaSnapStart")
	add(in.EnableBotStore != nil, "enableBotStore")
	add(in.EnableBotStoreReplicas != nil, "enableBotStoreReplicas")
	add(in.BotStoreLanguage != nil, "botStoreLanguage")
	add(in.TokenValidMinutes != nil, "tokenValidMinutes")
	add(in.AlternateDomainName != nil, "alternateDomainName")
	add(in.HostedZoneID != nil, "hostedZoneId")
	add(in.DevAccessIAMRoleARN != nil, "devAccessIamRoleArn")
	return out
}

// DefinedFields lists the fields set to a usable value: non-empty strings and
// lists, positive numbers, and any boolean.
func (in Input) DefinedFields() []string {
	var out []string
	add := func(defined bool, name string) {
		if defined {
			out = append(out, name)
		}
	}
	add(nonEmpty(in.BedrockRegion), "bedrockRegion")
	add(len(in.AllowedIPv4AddressRanges) > 0, "allowedIpV4AddressRanges")
	add(len(in.AllowedIPv6AddressRanges) > 0, "allowedIpV6AddressRanges")
	add(len(in.IdentityProviders) > 0, "identityProviders")
	add(nonEmpty(in.UserPoolDomainPrefix), "userPoolDomainPrefix")
	add(len(in.AllowedSignUpEmailDomains) > 0, "allowedSignUpEmailDomains")
	add(len(in.AutoJoinUserGroups) > 0, "autoJoinUserGroups")
	add(in.SelfSignUpEnabled != nil, "selfSignUpEnabled")
	add(len(in.PublishedAPIAllowedIPv4AddressRanges) > 0, "publishedApiAllowedIpV4AddressRanges")
	add(len(in.PublishedAPIAllowedIPv6AddressRanges) > 0, "publishedApiAllowedIpV6AddressRanges")
	add(in.EnableRAGReplicas != nil, "enableRagReplicas")
	add(in.EnableBedrockCrossRegionInference != nil, "enableBedrockCrossRegionInference")
	add(in.EnableLambdaSnapStart != nil, "enableLambdaSnapStart")
	add(in.EnableBotStore != nil, "enableBotStore")
	add(in.EnableBotStoreReplicas != nil, "enableBotStoreReplicas")
	add(nonEmpty(in.BotStoreLanguage), "botStoreLanguage")
	add(in.TokenValidMinutes != nil && *in.TokenValidMinutes > 0, "tokenValidMinutes")
	add(nonEmpty(in.AlternateDomainName), "alternateDomainName")
	add(nonEmpty(in.HostedZoneID), "hostedZoneId")
	add(nonEmpty(in.DevAccessIAMRoleARN), "devAccessIamRoleArn")
	return out
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
