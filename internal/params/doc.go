// Package params defines the deployment-environment parameter bundles and
// resolves a named environment into a complete parameter set. Bundles are
// registered by name; the reserved "default" bundle supplies values for every
// field a named bundle omits, and a cdk.json context fills whatever no
// registered bundle sets.
package params
