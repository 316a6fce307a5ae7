package mcpserver

// LinkRules describes how wiki links are turned into page identifiers, so
// that LLM consumers can interpret tool output and phrase queries.
const LinkRules = `# Wiki Link Resolution Rules

Pages are files below the page root. A file ` + "`" + `ns/sub/page.txt` + "`" + ` has the
canonical path ` + "`" + `:ns:sub:page` + "`" + `. Case is preserved in canonical paths.
Files whose names start with ` + "`" + `fr_` + "`" + `, ` + "`" + `f_` + "`" + `, ` + "`" + `_` + "`" + ` or ` + "`" + `n_` + "`" + ` are templates and are not pages.

## Link kinds

| Kind | Recognised by | Becomes an edge |
|------|---------------|-----------------|
| external | contains ` + "`" + `https://` + "`" + `, ` + "`" + `http://` + "`" + `, ` + "`" + `www.` + "`" + ` or ` + "`" + `@` + "`" + ` | no |
| section | starts with ` + "`" + `#` + "`" + ` | no |
| interwiki | contains ` + "`" + `>` + "`" + ` | no |
| absolute | starts with ` + "`" + `:` + "`" + ` or ` + "`" + `/` + "`" + `, or contains ` + "`" + `:` + "`" + ` without a leading ` + "`" + `.` + "`" + ` | yes |
| relative | everything else | yes, placed in the linking page's namespace |

## Normalisation

1. Lower-case; whitespace around ` + "`" + `:` + "`" + ` segments removed.
2. ` + "`" + `ä ö ü ß` + "`" + ` become ` + "`" + `ae oe ue ss` + "`" + `; quotes dropped.
3. ` + "`" + `& + ' space` + "`" + ` become ` + "`" + `_` + "`" + `; ` + "`" + `/` + "`" + ` becomes ` + "`" + `_` + "`" + ` unless the link starts with it.
4. A section suffix (` + "`" + `#...` + "`" + `) is dropped.
5. A trailing ` + "`" + `:` + "`" + ` means the namespace start page: ` + "`" + `ns:` + "`" + ` is ` + "`" + `:ns:start` + "`" + `.

## Vocabulary

- **wanted page**: a link target with no file behind it.
- **orphan**: a page no other page links to.
- **backlinks**: the pages linking to a page.
`
