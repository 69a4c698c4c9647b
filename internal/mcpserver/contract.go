package mcpserver

// PostFormatContract describes the page bundles vaultpress writes, so LLM
// consumers can prepare notes that convert cleanly.
const PostFormatContract = `# vaultpress Post Format

Notes are published as Hugo page bundles:

` + "```" + `
content/<section>/<slug>/index.md     # the converted post
content/<section>/<slug>/<image>      # body images, copied from the vault
assets/<slug>/<image>                 # feature images (legacy policy only)
` + "```" + `

## Input notes

- Obsidian Markdown. A YAML frontmatter block between ` + "`" + `---` + "`" + ` lines is optional.
- Without frontmatter the title comes from the first ` + "`" + `# ` + "`" + ` heading, else the file name.
- Image embeds ` + "`" + `![[cat.png]]` + "`" + ` and ` + "`" + `![[cat.png|A cat]]` + "`" + ` become
  ` + "`" + `![Image](cat.png)` + "`" + ` and ` + "`" + `![A cat](cat.png)` + "`" + `.
- Link brackets ` + "`" + `[[X]]` + "`" + ` inside frontmatter values become ` + "`" + `X` + "`" + `.
- Tags may be written with or without a leading ` + "`" + `#` + "`" + `; it is removed.

## cover policy (default)

Synthesized frontmatter:

` + "```" + `yaml
---
title: "Post title"
date: 2025-01-20
draft: true
description: ""
author: "Site Author"
tags: []
categories: []
series: []
ShowToc: false
TocOpen: false
cover:
  image: ""
  alt: ""
  caption: ""
  relative: true
---
` + "```" + `

Existing frontmatter is normalized: ` + "`" + `summary` + "`" + ` becomes ` + "`" + `description` + "`" + `,
` + "`" + `image` + "`" + `, ` + "`" + `featureimage` + "`" + ` and ` + "`" + `cardimage` + "`" + ` become a ` + "`" + `cover` + "`" + ` block,
` + "`" + `toc: true` + "`" + ` becomes ` + "`" + `ShowToc: true` + "`" + `/` + "`" + `TocOpen: false` + "`" + `, and
` + "`" + `canonical_url` + "`" + `, ` + "`" + `layout` + "`" + `, ` + "`" + `slug` + "`" + ` and an empty ` + "`" + `lastmod` + "`" + ` are dropped.

## legacy policy

Uses ` + "`" + `summary` + "`" + `, ` + "`" + `featureimage` + "`" + ` and ` + "`" + `cardimage` + "`" + ` fields, an author list,
` + "`" + `canonical_url` + "`" + `, ` + "`" + `slug` + "`" + ` and ` + "`" + `layout: post` + "`" + `. ` + "`" + `description` + "`" + `,
` + "`" + `featured_image` + "`" + ` and ` + "`" + `thumbnail` + "`" + ` are renamed to those fields.

## Images

- Reference images by file name; they are looked up anywhere in the vault.
- Remote images (` + "`" + `http://` + "`" + `, ` + "`" + `https://` + "`" + `) are left alone.
- Use the ` + "`" + `attach_image` + "`" + ` tool to add an image to an already published post. It
  returns a ` + "`" + `markdownImage` + "`" + ` field ready to paste into the note body.
`
