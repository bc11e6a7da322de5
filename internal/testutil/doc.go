// SPDX-License-Identifier: MPL-2.0

// Package testutil provides test helpers that fail the test on setup errors
// and hand back a restore function: working directory (MustChdir), environment
// (MustSetenv, MustUnsetenv) and the platform home directory (SetHomeDir).
//
// Descriptor trees for scanner tests live in the buildsystemtest subpackage.
package testutil
