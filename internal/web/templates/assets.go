package templates

const pageStyle = `
body{font-family:system-ui,sans-serif;margin:0;background:#f6f7f9;color:#1d2330}
main{max-width:960px;margin:0 auto;padding:2rem 1rem}
section{background:#fff;border-radius:8px;padding:1rem 1.25rem;margin:1rem 0;box-shadow:0 1px 2px rgba(0,0,0,.06)}
textarea{width:100%;box-sizing:border-box}
button{margin-top:.5rem}
table{width:100%;border-collapse:collapse;font-size:.9rem}
th,td{text-align:left;padding:.35rem .5rem;border-bottom:1px solid #e3e6ea}
.muted{color:#6b7280}
.alert-error{background:#fdecec;border:1px solid #f5b5b5;padding:.75rem;border-radius:6px}
.positive{color:#15803d}.negative{color:#b91c1c}.neutral{color:#6b7280}
`

const pageScript = `
const result = document.getElementById('result');
function esc(s){const d=document.createElement('div');d.textContent=String(s);return d.innerHTML}
function showError(e){result.innerHTML='<div class="alert alert-error"><strong>'+esc(e.message||'Request failed')+'</strong>'+(e.action?'<p>'+esc(e.action)+'</p>':'')+(e.code?'<small>Error code: '+esc(e.code)+'</small>':'')+'</div>'}
function showBatch(r){
  let h='<h2>Results</h2><p>'+r.total+' texts: '+r.positive_count+' positive, '+r.negative_count+' negative, '+r.neutral_count+' neutral';
  if(r.degraded_count){h+=' ('+r.degraded_count+' degraded)'}
  h+='</p><table><thead><tr><th>#</th><th>Text</th><th>Label</th><th>Confidence</th></tr></thead><tbody>';
  r.results.forEach((x,i)=>{h+='<tr><td>'+(i+1)+'</td><td>'+esc(x.text)+'</td><td class="'+esc(x.label)+'">'+esc(x.label)+(x.degraded?' *':'')+'</td><td>'+x.confidence.toFixed(4)+'</td></tr>'});
  result.innerHTML=h+'</tbody></table>';
}
function withKey(headers){
  const k=document.getElementById('api-key');
  if(k&&k.value){headers['X-API-Key']=k.value}
  return headers;
}
async function send(url, opts){
  const res=await fetch(url,opts);const body=await res.json();
  if(!res.ok){showError(body);return}
  showBatch(body);
}
document.getElementById('upload-form').addEventListener('submit',e=>{
  e.preventDefault();send('/api/upload-file',{method:'POST',headers:withKey({}),body:new FormData(e.target)});
});
document.getElementById('text-form').addEventListener('submit',e=>{
  e.preventDefault();
  const texts=e.target.texts.value.split('\n').map(s=>s.trim()).filter(Boolean);
  send('/api/classify-batch',{method:'POST',headers:withKey({'Content-Type':'application/json'}),body:JSON.stringify({texts})});
});
`
