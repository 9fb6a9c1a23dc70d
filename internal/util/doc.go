// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small string helpers shared across the bridge,
// mostly rune- and width-safe truncation used when logging previews of
// response content.
package util
