package i18n

var en = map[string]string{
	"undefined-var":              "undefined variable '%s'",
	"undefined-var-suggest":      "undefined variable '%s' (did you mean '%s'?)",
	"not-a-function":             "'%s' is not callable",
	"arity-mismatch":             "%s expects %d arguments, got %d",
	"arity-mismatch-min":         "%s expects at least %d arguments, got %d",
	"invalid-map-key":            "invalid map key: %s cannot key a map",
	"type-mismatch":              "%s expects %s, got %s",
	"no-matching-pattern":        "no pattern matched value %s",
	"rest-on-non-sequence":       "rest binding requires a list or vector, got %s",
	"recur-not-tail":             "recur is only allowed in tail position",
	"recur-outside":              "recur used outside loop or function body",
	"recur-arity":                "recur expects %d values, got %d",
	"unquote-outside-quasiquote": "unquote outside quasiquote",
	"bad-splice-target":          "unquote-splice requires a list or vector, got %s",
	"channel-closed":             "channel is closed",
	"promise-failed":             "promise closed before delivering a result",
	"io-failure":                 "io failure: %s",
	"module-not-found":           "module '%s' not found",
	"not-exported":               "'%s' is not exported by module '%s'",
	"circular-dependency":        "circular module dependency: %s",
	"use-before-module":          "use requires the importing file to declare a module first",
	"key-missing":                "key %s not found",
	"parse-error":                "parse error: %s",
	"select-timeout-cases":       "select! allows at most one timeout case",
	"non-numeric":                "%s requires numeric operands, got %s",
	"redefine-builtin":           "redefining builtin '%s'",
	"deferred-error":             "deferred expression failed",
}

var ja = map[string]string{
	"undefined-var":              "未定義の変数 '%s'",
	"undefined-var-suggest":      "未定義の変数 '%s' ('%s' ではありませんか?)",
	"not-a-function":             "'%s' は呼び出しできません",
	"arity-mismatch":             "%s は %d 個の引数が必要ですが %d 個でした",
	"arity-mismatch-min":         "%s は少なくとも %d 個の引数が必要ですが %d 個でした",
	"invalid-map-key":            "無効なマップキー: %s はキーにできません",
	"type-mismatch":              "%s は %s が必要ですが %s でした",
	"no-matching-pattern":        "値 %s に一致するパターンがありません",
	"rest-on-non-sequence":       "rest 束縛にはリストかベクタが必要ですが %s でした",
	"recur-not-tail":             "recur は末尾位置でのみ使用できます",
	"recur-outside":              "recur は loop または関数本体の外では使用できません",
	"recur-arity":                "recur は %d 個の値が必要ですが %d 個でした",
	"unquote-outside-quasiquote": "quasiquote の外で unquote が使われました",
	"bad-splice-target":          "unquote-splice にはリストかベクタが必要ですが %s でした",
	"channel-closed":             "チャネルは閉じられています",
	"promise-failed":             "プロミスは結果を返さずに閉じられました",
	"io-failure":                 "入出力エラー: %s",
	"module-not-found":           "モジュール '%s' が見つかりません",
	"not-exported":               "'%s' はモジュール '%s' からエクスポートされていません",
	"circular-dependency":        "モジュールの循環依存: %s",
	"use-before-module":          "use の前に module 宣言が必要です",
	"key-missing":                "キー %s が見つかりません",
	"parse-error":                "構文エラー: %s",
	"select-timeout-cases":       "select! の timeout ケースは 1 つまでです",
	"non-numeric":                "%s には数値が必要ですが %s でした",
	"redefine-builtin":           "組み込み '%s' を再定義しています",
	"deferred-error":             "defer 式が失敗しました",
}
