package mcpserver

// NoteFormatContract describes the canonical Markdown note format that
// LLM consumers should follow when creating or editing note files.
const NoteFormatContract = `# Gebo Note Format Contract

Every Markdown note stored in Gebo MUST follow this structure.

## Structure

` + "```" + `markdown
---
title: Human-readable title        # REQUIRED - the note's name everywhere
tags:                              # OPTIONAL - YAML list; used for filtering
  - tag-one
  - tag-two
linked_notes:                      # OPTIONAL - outgoing links, in order
  - Other Note
  - work/Standup
created_at: 2025-01-15T09:00:00Z   # OPTIONAL - set automatically on create
updated_at: 2025-01-20T14:30:00Z   # OPTIONAL - maintained automatically
---

Body text in standard Markdown.
` + "```" + `

## Identity

1. A note is identified by its **title** plus an optional **category**.
2. The category is the first directory level: ` + "`" + `work/standup.md` + "`" + ` is in
   category ` + "`" + `work` + "`" + `; files at the vault root have no category.
3. The string form is ` + "`" + `Title` + "`" + ` or ` + "`" + `Category/Title` + "`" + `, split at the FIRST slash.
4. Matching is case-sensitive and exact. ` + "`" + `Standup` + "`" + ` and ` + "`" + `standup` + "`" + ` are
   different notes.

## Links

1. **All links live in the ` + "`" + `linked_notes` + "`" + ` frontmatter list.** The body is
   never scanned for links.
2. Each entry is an identity string: ` + "`" + `Other Note` + "`" + ` or ` + "`" + `work/Standup` + "`" + `.
3. An unqualified entry resolves to the uncategorized note with that title
   if one exists, otherwise to the note in the alphabetically first
   category holding it.
4. Entries that resolve to no note are "dangling": kept in the file,
   reported by the orphaned-links tools, never silently dropped.
5. Links are directed. A mutual link is two entries, one in each note.

## Rules

1. **YAML frontmatter is mandatory for linked notes.** The ` + "`" + `---` + "`" + ` fences
   must be the first thing in the file (no leading blank lines).
2. **` + "`" + `title` + "`" + ` should match the file.** When absent, the first ` + "`" + `# heading` + "`" + `
   or the file name stem is used instead.
3. **Tags** are lowercase, kebab-case (e.g. ` + "`" + `project-x` + "`" + `, ` + "`" + `meeting-notes` + "`" + `).
4. **File paths** end with ` + "`" + `.md` + "`" + `, use forward slashes, and nest at most
   one directory deep (the category).
5. **Encoding** is UTF-8 with a trailing newline.
6. Unknown frontmatter keys are preserved; do not remove keys you do not
   understand.

## Example

` + "```" + `markdown
---
title: Weekly standup
tags:
  - meeting-notes
linked_notes:
  - work/Roadmap
  - Inbox
created_at: 2025-01-20T09:00:00Z
updated_at: 2025-01-20T09:00:00Z
---

# Weekly standup

Attendees: Alice, Bob.

## Action items

- Review the roadmap draft
- Triage the inbox
` + "```" + `
`
