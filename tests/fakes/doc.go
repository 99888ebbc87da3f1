// Package fakes provides in-memory doubles for the cloud and OS clients
// behind the secret stores, so store behavior can be tested without
// network access.
//
//	sm := fakes.NewFakeSecretsManagerClient()
//	sm.AddSecretString("ci/nexus", `{"username":"deployer","password":"s3cret"}`)
//	p, _ := providers.NewAWSSecretsManagerProvider("aws", nil, providers.WithSecretsManagerClient(sm))
package fakes
