// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markup renders assistant markdown into an immutable document tree.
//
// Markdown is converted to HTML with goldmark (GitHub flavoured), and the
// HTML fragment is parsed with golang.org/x/net/html into Node values. Math
// delimited with $...$ or $$...$$ outside code becomes KindMath nodes,
// rendered by the configured MathRenderer.
//
// # Usage
//
//	r := markup.NewRenderer(texmath.Renderer{})
//	doc, err := r.Render("The area is $\\pi r^2$.")
//	fmt.Println(markup.TextContent(doc)) // The area is π r².
package markup
