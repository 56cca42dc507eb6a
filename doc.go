// Package authswitch lets applications observe a logged in user attaching
// a new credential method (another login service) to their account.
//
// Switch lifecycle:
//   - A Pipeline runs login attempts. Each attempt gets a fresh invocation
//     (see the invocation package) that travels on the attempt's context and
//     is shared by every hook of that attempt, and only by them.
//   - Manager.Register wires a Callbacks value into the pipeline. Its
//     validate hook recognizes a switch (the session is logged in as
//     another account that has no credentials for the attempted service),
//     stores the attempting user on the invocation and asks ValidateSwitch
//     whether to allow it.
//   - Once the pipeline decides, OnSwitch or OnSwitchFailure receives the
//     attempting user stored on that same invocation. Attempts that are not
//     switches never reach the callbacks, and ordinary logins keep the
//     decision the pipeline already made.
//
// Registrations:
//   - Register returns a Registration whose Stop detaches its hooks and can
//     be called any number of times. Manager.StopAll stops everything
//     registered so far, which is handy between tests.
//
// Observability:
//   - ActivitySink receives auth.switch.success and auth.switch.failure
//     events, best effort (errors are logged). MetricsReporter counts
//     attributed switches, validation decisions and outcomes.
package authswitch
