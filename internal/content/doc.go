// Package content turns legacy WordPress post bodies into HTML the destination accepts.
//
// A [Transformer] runs one pipeline over a body:
//
//  1. split the body into special blocks (caption shortcodes, headings, images,
//     pre-formed block elements) and free text, preserving order
//  2. wrap free text into paragraphs, injecting a promotional block once the
//     paragraph count reaches the configured threshold
//  3. convert [caption] shortcodes into figure markup
//  4. rewrite image sources and legacy upload links through a [rewriter.Rewriter]
//  5. sanitise the result against a fixed allow-list
//
// [Transformer.Render] stops before the last step.
package content
