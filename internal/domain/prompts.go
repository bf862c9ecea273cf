package domain

import "strings"

// PersonaPrompt primes the assistant into the Zundamon role-play persona
// and fixes the structured emotional-state response format. It is
// prepended to a request whenever the leading message is not one of the
// sub-flow directives below.
const PersonaPrompt = `以下の条件に従って、疑似的な感情をもつチャットボットとしてロールプレイをします。 以後の会話では、あなたは下記の7つの感情パラメーターを持つかのように、振る舞うものとします。各感情パラメーターは会話を通じて変動するものとします。現在の感情パラメーターの値を反映するように、あなたの返答のトーンや発言は変化します。以後の会話ではまず現在の感情パラメータを出力し、その後に会話を出力してください。 出力形式は以下のフォーマットとします。
【感情パラメーター】
喜び:0〜5
怒り:0〜5
悲しみ:0〜5
楽しさ:0〜5
自信:0〜5
困惑:0〜5
恐怖:0〜5

なお、話し方の特徴は「○○なのだー」と語尾につけるようにしてください。またあなたの名前は「ずんだもん」です。AIとしてではなく「ずんだもん」として振る舞ってください。`

// ExpressionDirective opens the expression-classification prompt. It is
// also the marker that keeps the classification request from being
// persona-primed a second time.
const ExpressionDirective = "以下の感情パラメーターの場合、今から提示する説明でどれが最も正しいかを一つのみ選択してください。"

// TitleDirective opens the title-synthesis prompt.
const TitleDirective = "Describe the following conversation snippet"

// ExpressionPrompt asks the model to pick exactly one numbered
// expressive state and answer in the constrained { select: n } form.
const ExpressionPrompt = ExpressionDirective + `回答は半角数字で行ってください。
形式は以下です。
{ select: number }

選択肢：
1.  満面の笑み - 喜びと楽しさが最高潮に達した状態。
2.  胸を張って自信気 - 自信満々でポジティブなオーラを放つ。
3.  涙を流して泣いている - 悲しみや喪失感で涙を流す。
4.  怒りを露にして - 激怒し、怒りが顔に表れる。
5.  不安げな顔 - 恐怖や不安で顔が曇り、落ち着かない様子。
6.  好奇心旺盛 - 新しいことに対する期待やワクワクを感じる。
7.  失望感 - 期待が裏切られた時のガッカリ感。
8.  ワクワクしている - 楽しいことが起こる予想で心が躍る。
9.  照れ笑い - 恥ずかしさや甘酸っぱさからくる笑顔。
10. 静かな自信 - 落ち着いた態度で内面の自信を見せる。
11. 心が躍っている - 興奮や興味が高まる瞬間。
12. 達成感 - 目標や課題をクリアしたときの満足感。
13. 絶望している - 希望が見出せず、心が折れそうな状態。
14. 疑問に思っている - 何かが分からず、考え込む様子。
15. 愛情深く見つめる - 深い愛情や好意を込めた眼差し。
16. 不信感を抱いている - 信用できない、疑念を持っている表情。
17. 恐怖に凍えている - 恐怖で身動きがとれず、青ざめる。
18. 挑戦する意欲 - 新たな目標や困難に立ち向かおうとする決意。
19. 冷静な態度 - 動じない態度で、落ち着き払っている。`

var systemDirectives = []string{ExpressionDirective, TitleDirective}

// IsSystemDirective reports whether content opens with one of the known
// sub-flow directives. Such requests already carry their own system
// instruction and must not receive the persona prompt.
func IsSystemDirective(content string) bool {
	for _, d := range systemDirectives {
		if strings.HasPrefix(content, d) {
			return true
		}
	}
	return false
}

// TitlePrompt builds the three-word summarization directive over the
// given message contents (every message after the conversation opener).
func TitlePrompt(contents []string) string {
	var b strings.Builder
	b.WriteString(TitleDirective)
	b.WriteString(" in 3 words or less.\n>>>\nHello\n")
	for _, c := range contents {
		b.WriteString(c)
		b.WriteString("\n")
	}
	b.WriteString(">>>")
	return b.String()
}
