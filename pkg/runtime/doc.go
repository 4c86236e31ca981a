// Package runtime runs a model/update/view application on top of the
// morph reconciler.
//
// An App has three functions: Init builds the first model, Update folds a
// message into the model, View renders the model as a VNode tree. Both
// Init and Update may return an Effect.
//
// Messages dispatched by event handlers or effects are queued. A tick
// applies the whole queue, runs the effects that produced, and morphs the
// document once:
//
//	rt, err := runtime.Start(doc, root, app)
//	go rt.Run(ctx)
//	rt.Dispatch(Increment{})
//
// Run batches ticks for WithBatchDelay; events decoded from input events
// are dispatched as immediate and tick right away.
package runtime
