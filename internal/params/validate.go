package params

import (
	"errors"
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/eugenenazirov/stackctl/internal/netrange"
)

// ErrInvalidParameters wraps field validation failures.
var ErrInvalidParameters = errors.New("invalid deployment parameters")

// Recognized identity provider services.
const (
	ServiceGoogle   = "google"
	ServiceFacebook = "facebook"
	ServiceAmazon   = "amazon"
	ServiceApple    = "apple"
	ServiceOIDC     = "oidc"
)

// BotStoreLanguages lists the analyzers the bot store index supports.
var BotStoreLanguages = []string{"en", "ja", "ko", "zh-cn", "zh-tw", "fr", "de", "es", "it", "pt-br"}

const (
	minTokenValidMinutes = 5
	maxTokenValidMinutes = 24 * 60
)

var (
	regionPattern     = regexp.MustCompile(`^[a-z]{2}(-gov)?-[a-z]+-\d$`)
	domainPrefixRegex = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)
	hostedZonePattern = regexp.MustCompile(`^Z[A-Z0-9]{1,31}$`)
	iamRolePattern    = regexp.MustCompile(`^arn:aws[a-z-]*:iam::\d{12}:role/[\w+=,.@/-]+$`)
)

// Validate checks the provider entry.
func (p IdentityProvider) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Service, validation.Required,
			validation.In(ServiceGoogle, ServiceFacebook, ServiceAmazon, ServiceApple, ServiceOIDC)),
		validation.Field(&p.ServiceName, validation.When(p.Service == ServiceOIDC, validation.Required)),
		validation.Field(&p.SecretName, validation.Required),
	)
}

// Validate checks syntax and cross-field consistency of resolved parameters.
// Resolution never calls it; the deployment tool remains the final authority.
func (p Parameters) Validate() error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.BedrockRegion, validation.Required, validation.Match(regionPattern)),
		validation.Field(&p.AllowedIPv4AddressRanges, validation.Each(cidr(netrange.IPv4))),
		validation.Field(&p.AllowedIPv6AddressRanges, validation.Each(cidr(netrange.IPv6))),
		validation.Field(&p.PublishedAPIAllowedIPv4AddressRanges, validation.Each(cidr(netrange.IPv4))),
		validation.Field(&p.PublishedAPIAllowedIPv6AddressRanges, validation.Each(cidr(netrange.IPv6))),
		validation.Field(&p.IdentityProviders),
		validation.Field(&p.UserPoolDomainPrefix,
			validation.Match(domainPrefixRegex),
			validation.When(len(p.IdentityProviders) > 0, validation.Required.Error("is required when identity providers are configured"))),
		validation.Field(&p.AllowedSignUpEmailDomains, validation.Each(is.Domain)),
		validation.Field(&p.AutoJoinUserGroups, validation.Each(validation.Required)),
		validation.Field(&p.EnableBotStoreReplicas,
			validation.When(!p.EnableBotStore, validation.In(false).Error("requires enableBotStore"))),
		validation.Field(&p.BotStoreLanguage, validation.Required, validation.In(languageValues()...)),
		validation.Field(&p.TokenValidMinutes, validation.Required, validation.Min(minTokenValidMinutes), validation.Max(maxTokenValidMinutes)),
		validation.Field(&p.AlternateDomainName, is.Domain,
			validation.When(p.HostedZoneID != "", validation.Required.Error("is required when hostedZoneId is set"))),
		validation.Field(&p.HostedZoneID, validation.Match(hostedZonePattern),
			validation.When(p.AlternateDomainName != "", validation.Required.Error("is required when alternateDomainName is set"))),
		validation.Field(&p.DevAccessIAMRoleARN, validation.Match(iamRolePattern)),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	return nil
}

func cidr(family netrange.Family) validation.Rule {
	return validation.By(func(value interface{}) error {
		raw, ok := value.(string)
		if !ok {
			return fmt.Errorf("must be a string")
		}
		if _, err := netrange.ParseOne(family, raw); err != nil {
			return fmt.Errorf("must be an %s CIDR range", family)
		}
		return nil
	})
}

func languageValues() []interface{} {
	out := make([]interface{}, len(BotStoreLanguages))
	for i, lang := range BotStoreLanguages {
		out[i] = lang
	}
	return out
}
