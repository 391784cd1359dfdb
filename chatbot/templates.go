package chatbot

import "bww-support-bot/nlp"

// DefaultReply is sent when no intent could be detected.
const DefaultReply = "معلش مفهمتش قصدك بالظبط. ممكن توضح أكتر؟ أو ممكن تسأل عن: المنتجات، الأسعار، التوصيل، أو الطلبات."

// replyTemplates holds the reply pool of every intent. Pools with more than
// one entry are sampled uniformly.
var replyTemplates = [nlp.NumIntents][]string{
	nlp.IntentNone: {DefaultReply},
	nlp.IntentGreeting: {
		"أهلاً وسهلاً! أنا هنا لمساعدتك في BWW Store. إزاي أقدر أساعدك؟",
		"مرحباً بيك في BWW Store! عامل إيه؟ عايز تعرف إيه عن منتجاتنا؟",
		"السلام عليكم! نورت BWW Store. أقدر أساعدك في إيه؟",
	},
	nlp.IntentProductInquiry: {
		"عندنا مجموعة كبيرة من المنتجات. عايز تعرف عن منتج معين؟ قولي عايز إيه وهقولك كل حاجة عنه.",
	},
	nlp.IntentOrderStatus: {
		"عشان أتابع طلبك، ممكن تديني رقم الطلب؟ أو لو عارف الإيميل اللي سجلت بيه، هقدر أجيب كل طلباتك.",
	},
	nlp.IntentComplaint: {
		"أنا آسف جداً للمشكلة اللي حصلت. ممكن تقولي تفاصيل المشكلة عشان أقدر أساعدك؟ راحتك وسعادتك مهمة جداً بالنسبالنا.",
	},
	nlp.IntentPriceInquiry: {
		"أسعارنا تنافسية جداً! قولي على المنتج اللي عايز تعرف سعره وهقولك كل التفاصيل والعروض المتاحة.",
	},
	nlp.IntentAvailability: {
		"عشان أتأكد من توفر المنتج، ممكن تقولي اسمه أو رقمه؟ وهشوف ليك المخزون فوراً.",
	},
	nlp.IntentPayment: {
		"عندنا طرق دفع كتير: نقدي عند الاستلام، فيزا، فودافون كاش، وإنستاباي. أي طريقة تريحك؟",
	},
	nlp.IntentShipping: {
		"التوصيل بيكون خلال 2-5 أيام حسب المحافظة. التوصيل مجاني للطلبات فوق 500 جنيه. عايز تعرف المدة لمحافظة معينة؟",
	},
	nlp.IntentReturn: {
		"عندك 14 يوم من تاريخ الاستلام للإرجاع أو الاستبدال. المنتج لازم يكون بحالته الأصلية. محتاج تفاصيل أكتر؟",
	},
	nlp.IntentFarewell: {
		"شكراً ليك! لو احتجت أي حاجة تاني أنا موجود دايماً. 😊",
		"العفو! يوم سعيد وإن شاء الله نشوفك تاني قريب!",
		"مع السلامة! BWW Store دايماً موجود لخدمتك.",
	},
}

// Templates returns a copy of the reply pool used for intent. Values outside
// the intent set return the default pool.
func Templates(intent nlp.Intent) []string {
	if !intent.Valid() {
		intent = nlp.IntentNone
	}
	return append([]string(nil), replyTemplates[intent]...)
}
