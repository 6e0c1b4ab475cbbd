package web

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Trading Dashboard</title>
<style>
  body { font-family: -apple-system, "Segoe UI", sans-serif; background: #111827; color: #e5e7eb; margin: 0; padding: 24px; }
  h1 { font-size: 20px; margin: 0 0 16px; }
  .cards { display: flex; gap: 16px; flex-wrap: wrap; margin-bottom: 24px; }
  .card { background: #1f2937; border-radius: 8px; padding: 16px 20px; min-width: 140px; }
  .card .label { font-size: 12px; color: #9ca3af; text-transform: uppercase; }
  .card .value { font-size: 22px; margin-top: 4px; }
  .buy { color: #34d399; } .sell { color: #f87171; } .hold { color: #fbbf24; }
  table { border-collapse: collapse; width: 100%; background: #1f2937; border-radius: 8px; overflow: hidden; }
  th, td { text-align: left; padding: 8px 14px; font-size: 14px; }
  th { background: #374151; color: #9ca3af; font-weight: 500; }
  tr:nth-child(even) td { background: #111827; }
  iframe { border: 0; width: 100%; height: 640px; margin-top: 24px; background: #fff; border-radius: 8px; }
  .error { color: #f87171; font-size: 13px; margin-bottom: 12px; }
</style>
</head>
<body>
<h1 id="title">Trading Dashboard</h1>
<div class="error" id="errors"></div>
<div class="cards">
  <div class="card"><div class="label">Loop</div><div class="value" id="running">—</div></div>
  <div class="card"><div class="label">Signal</div><div class="value" id="signal">—</div></div>
  <div class="card"><div class="label">Sentiment</div><div class="value" id="sentiment">—</div></div>
  <div class="card"><div class="label">Position</div><div class="value" id="position">—</div></div>
  <div class="card"><div class="label">Cash</div><div class="value" id="cash">—</div></div>
</div>
<h1>Recent trades</h1>
<table>
  <thead><tr><th>Time</th><th>Action</th><th>Qty</th><th>Symbol</th><th>Price</th><th>Order</th></tr></thead>
  <tbody id="trades"></tbody>
</table>
<iframe src="/chart"></iframe>
<script>
const signalClass = s => s === 'BUY' ? 'buy' : s === 'SELL' ? 'sell' : 'hold';

async function refreshStatus() {
  const res = await fetch('/api/status');
  const data = await res.json();
  document.getElementById('title').textContent = data.ticker + ' Trading Dashboard';
  document.getElementById('running').textContent = data.running ? 'Running' : 'Paused';
  const sig = document.getElementById('signal');
  sig.textContent = data.signal; sig.className = 'value ' + signalClass(data.signal);
  document.getElementById('sentiment').textContent = data.sentiment;
  document.getElementById('position').textContent = data.position !== undefined ? data.position + ' sh' : '—';
  document.getElementById('cash').textContent = data.cash !== undefined ? '$' + data.cash.toFixed(2) : '—';
  const errs = [];
  for (const k of ['signal_error', 'news_error', 'classify_error', 'broker_error']) {
    if (data[k]) errs.push(data[k]);
  }
  document.getElementById('errors').textContent = errs.join(' | ');
}

async function refreshTrades() {
  const res = await fetch('/api/trades?n=20');
  const data = await res.json();
  const rows = (data.trades || []).map(t =>
    '<tr><td>' + new Date(t.timestamp * 1000).toLocaleString() + '</td>' +
    '<td class="' + signalClass(t.action) + '">' + t.action + '</td>' +
    '<td>' + t.quantity + '</td><td>' + t.symbol + '</td>' +
    '<td>' + t.price.toFixed(2) + '</td><td>' + t.order_id + '</td></tr>');
  document.getElementById('trades').innerHTML = rows.join('');
}

function refreshAll() {
  refreshStatus().catch(() => {});
  refreshTrades().catch(() => {});
}

refreshAll();
setInterval(refreshAll, 15000);
</script>
</body>
</html>`
