package mcpserver

// MarkupContract describes what a generated draft keeps from its source
// document and where inline tags end up.
const MarkupContract = `# Draft Markup Contract

Drafts are USFM documents rebuilt from a source document in the vault.
Format name: structured-markup.

## What is preserved

1. Every marker line of the source appears in the draft in the same order,
   with the same marker name and number (` + "`" + `\c 3` + "`" + `, ` + "`" + `\v 5` + "`" + `, ` + "`" + `\v 1-2` + "`" + `).
2. Verses without an active, non-empty translation are copied unchanged.
3. Lines outside verse blocks (` + "`" + `\id` + "`" + `, headings, ` + "`" + `\p` + "`" + ` paragraph breaks) are copied unchanged.
4. No translated word is dropped or reordered. When a verse spans several
   text lines, its words are spread across them in order, earlier lines
   taking one extra word when the count does not divide evenly.

## Inline tags

Inline spans such as ` + "`" + `\nd LORD\nd*` + "`" + ` or ` + "`" + `\wj ...\wj*` + "`" + ` are
re-applied by word position, not by meaning:

- A tag that started on the Nth word of the source line wraps the Nth word
  of the translated line, or the last word if the translation is shorter.
- If no word can be chosen the tag wraps the whole translated line.
- If the translated line is empty the tag is dropped.
- Tags landing on the same word nest in source order.

Footnotes and cross references (` + "`" + `\f ...\f*` + "`" + `, ` + "`" + `\x ...\x*` + "`" + `) are
copied verbatim, including their caller and inner markers. Each is placed
right after the translated word at the position of the source word it
followed, or after the last word if the translation is shorter.

Word order differs between languages, so a tag may land on the wrong word.
Review tagged words before publishing a draft.

## Lifecycle

- ` + "`" + `generate_book_draft` + "`" + ` overwrites the latest draft of that book.
- ` + "`" + `generate_project_draft` + "`" + ` always creates a new draft. Project drafts
  are never overwritten, including those made for a single book.
- Generation fails with "no translatable content" when the scope has no
  active translation record with text; nothing is written in that case.
`
