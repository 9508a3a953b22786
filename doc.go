// Package changegate implements change-control for a legacy ERP host: a
// request carries file artifacts through a department sign-off chain and,
// once approved, through a backup, compile and deploy pipeline against the
// remote system.
//
// The engine is embedded through the Service façade:
//
//	svc, _ := changegate.New(ctx, changegate.DefaultConfig())
//	_ = svc.SaveChain(ctx, financeChain)
//	r, _ := svc.Create(ctx, input, applicant)
//	r, _ = svc.Submit(ctx, r.ID, applicant)
//	r, _ = svc.Approve(ctx, r.ID, manager, "ok")
//	result, _ := svc.RunDeploy(ctx, r.ID, nil, dba)
//
// Presentation, authentication and mail delivery stay outside; the engine
// publishes lifecycle events for external listeners instead.
package changegate
