package params

var (
	allIPv4 = []string{"0.0.0.0/1", "128.0.0.0/1"}
	allIPv6 = []string{
		"0000:0000:0000:0000:0000:0000:0000:0000/1",
		"8000:0000:0000:0000:0000:0000:0000:0000/1",
	}
)

// Baseline returns the compiled-in values used for any field that no
// registered bundle or cdk.json context supplies.
func Baseline() Parameters {
	return Parameters{
		BedrockRegion:                        "us-east-1",
		AllowedIPv4AddressRanges:             cloneStrings(allIPv4),
		AllowedIPv6AddressRanges:             cloneStrings(allIPv6),
		IdentityProviders:                    []IdentityProvider{},
		UserPoolDomainPrefix:                 "",
		AllowedSignUpEmailDomains:            []string{},
		AutoJoinUserGroups:                   []string{"CreatingBotAllowed"},
		SelfSignUpEnabled:                    true,
		PublishedAPIAllowedIPv4AddressRanges: cloneStrings(allIPv4),
		PublishedAPIAllowedIPv6AddressRanges: cloneStrings(allIPv6),
		EnableRAGReplicas:                    true,
		EnableBedrockCrossRegionInference:    true,
		EnableLambdaSnapStart:                true,
		EnableBotStore:                       true,
		EnableBotStoreReplicas:               false,
		BotStoreLanguage:                     "en",
		TokenValidMinutes:                    30,
	}
}

// Builtin returns a registry holding the project's registered environments.
// Its "default" bundle sets every field, so a cdk.json context only shows
// through a registry built without it.
func Builtin() *Registry {
	reg := NewRegistry()

	reg.MustSet("dev", Input{
		EnableRAGReplicas:      Bool(false),
		EnableBotStore:         Bool(false),
		EnableBotStoreReplicas: Bool(false),
	})

	reg.MustSet(DefaultEnvironment, Input{
		BedrockRegion:                        String("us-east-1"),
		AllowedIPv4AddressRanges:             cloneStrings(allIPv4),
		AllowedIPv6AddressRanges:             cloneStrings(allIPv6),
		IdentityProviders:                    []IdentityProvider{},
		UserPoolDomainPrefix:                 String(""),
		AllowedSignUpEmailDomains:            []string{},
		AutoJoinUserGroups:                   []string{"CreatingBotAllowed"},
		SelfSignUpEnabled:                    Bool(false),
		PublishedAPIAllowedIPv4AddressRanges: cloneStrings(allIPv4),
		PublishedAPIAllowedIPv6AddressRanges: cloneStrings(allIPv6),
		EnableRAGReplicas:                    Bool(false),
		EnableBedrockCrossRegionInference:    Bool(true),
		EnableLambdaSnapStart:                Bool(true),
		EnableBotStore:                       Bool(false),
		EnableBotStoreReplicas:               Bool(false),
		BotStoreLanguage:                     String("en"),
		TokenValidMinutes:                    Int(30),
		AlternateDomainName:                  String(""),
		HostedZoneID:                         String(""),
		DevAccessIAMRoleARN:                  String(""),
	})

	return reg
}

func cloneStrings(src []string) []string {
	out := make([]string, len(src))
	copy(out, src)
	return out
}
