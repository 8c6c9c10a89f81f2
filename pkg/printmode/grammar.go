package printmode

const GrammarDescription = `[Print Mode Concepts]
A print mode controls how each log entry is written as a line of text.
It's either the name of a preset, or a template that starts with '@'.
An empty print mode is the General preset.

Presets:
  General                Timestamp and message, followed by every other attribute that's present.
  FunctionOnly           Only the Function attribute.
  FirstFunctionOnly      The Function attribute, the first time each function is seen.
  DifferentFunctionOnly  The Function attribute, when it differs from the previous entry's.
(Run 'logprint format' to see the template each preset expands to)

Entries are rendered in timestamp order. An entry that renders to nothing produces no line at all.


[Template Syntax]
  @[ENTRY_CONDITION]ELEMENT...

An entry condition applies to the whole line.
  +    Only render valid entries.
  -    Only render entries that failed extraction.

An element is either literal text, or an attribute reference.
  [CONDITION...]{ATTRIBUTE[|FORMAT]}[!"FALLBACK"]

Conditions guard a single attribute reference. All of them must hold for the reference to be written.
  +    The entry is valid.
  -    The entry failed extraction.
  ^    The attribute is present.
  $    The attribute's value is different from the last entry that had it.
  ~    The attribute's value has not been seen before.

FORMAT is written in place of the value, with every {} replaced by the value.
FALLBACK is written when the attribute is missing. Use "" for a literal quote, and {ATTRIBUTE} to include another attribute's value.
Without a fallback, a missing attribute is written as {Missing Value for "ATTRIBUTE"}.

Attributes:
  Timestamp, Message, ThreadID, SourceFile, Function, SourceLine, Level, SequenceNumber,
  Module, Type, Section, TraceID, Context, LogSource

The characters + - ^ $ ~ ! { } are reserved. Repeat one of them to write it as text, so '{{' is written as '{'.
A run of the same reserved character is always written as a single character.


[Examples]
  @{Message}                      Just the message.
  @+[{Timestamp}] {Message}       Timestamp and message of valid entries only.
  @${Function}                    Each time execution moves to a different function.
  @{Level|<{}>} {Message}         Level in angle brackets, then the message.
  @{Function}!"unknown"           The function, or "unknown" if it's missing.
`
