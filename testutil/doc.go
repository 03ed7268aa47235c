// Package testutil provides test doubles for supervision tests.
//
// StubService implements every optional service capability with
// scriptable outcomes, so tests can drive the registry, health
// monitor, and recovery coordinator without real services:
//
//	stub := testutil.NewStubService()
//	stub.SetHealthy(false)
//	stub.FailOp("restart", errors.New("port busy"))
//	reg.Register(service.Description{ID: "db", Instance: stub})
package testutil
