// Package buildconfig models the front-end bundler configuration: module
// aliases, the ordered plugin list with the progressive-web-app plugin and its
// manifest, and the dev-server host binding.
package buildconfig
